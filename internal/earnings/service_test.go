package earnings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
)

type fakeEarningsRepo struct {
	referral  *models.ReferralConversion
	dataOrder *models.DataOrder
	wholesale *models.WholesaleOrder
	voucher   *models.VoucherOrder
}

func (f *fakeEarningsRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeEarningsRepo) ListEligible(ctx context.Context, agentID uuid.UUID) ([]Event, error) {
	return nil, nil
}

func (f *fakeEarningsRepo) ListAll(ctx context.Context, agentID uuid.UUID) ([]Event, error) {
	return nil, nil
}

func (f *fakeEarningsRepo) ListByWithdrawal(ctx context.Context, withdrawalID uuid.UUID) ([]Event, error) {
	return nil, nil
}

func (f *fakeEarningsRepo) Reserve(ctx context.Context, withdrawalID uuid.UUID, events []Event) (int64, error) {
	return 0, nil
}

func (f *fakeEarningsRepo) FinalizeReservation(ctx context.Context, withdrawalID uuid.UUID, at time.Time) error {
	return nil
}

func (f *fakeEarningsRepo) ReleaseReservation(ctx context.Context, withdrawalID uuid.UUID) error {
	return nil
}

func (f *fakeEarningsRepo) CreateReferralConversion(ctx context.Context, row *models.ReferralConversion) error {
	row.ID = uuid.New()
	f.referral = row
	return nil
}

func (f *fakeEarningsRepo) CreateDataOrder(ctx context.Context, row *models.DataOrder) error {
	row.ID = uuid.New()
	f.dataOrder = row
	return nil
}

func (f *fakeEarningsRepo) CreateWholesaleOrder(ctx context.Context, row *models.WholesaleOrder) error {
	row.ID = uuid.New()
	f.wholesale = row
	return nil
}

func (f *fakeEarningsRepo) CreateVoucherOrder(ctx context.Context, row *models.VoucherOrder) error {
	row.ID = uuid.New()
	f.voucher = row
	return nil
}

func TestService_RecordEventComputesCommission(t *testing.T) {
	repo := &fakeEarningsRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	agentID := uuid.New()
	id, err := svc.RecordEvent(context.Background(), RecordEventInput{
		Source:      enums.EarningSourceDataOrder,
		AgentID:     agentID,
		Price:       decimal.RequireFromString("500"),
		RatePercent: decimal.RequireFromString("2"),
		Network:     "mtn",
		PlanName:    "5GB",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.dataOrder)
	assert.Equal(t, id, repo.dataOrder.ID)
	assert.Equal(t, agentID, repo.dataOrder.AgentID)
	assert.True(t, repo.dataOrder.CommissionAmount.Equal(decimal.RequireFromString("10")),
		"got %s", repo.dataOrder.CommissionAmount)
	assert.Equal(t, enums.EarningStatusCompleted, repo.dataOrder.Status)
}

func TestService_RecordEventStoresZeroForDust(t *testing.T) {
	repo := &fakeEarningsRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	// 0.04 at 10% rounds below the minimum commission.
	_, err = svc.RecordEvent(context.Background(), RecordEventInput{
		Source:      enums.EarningSourceVoucherOrder,
		AgentID:     uuid.New(),
		Price:       decimal.RequireFromString("0.04"),
		RatePercent: decimal.RequireFromString("10"),
		OrderRef:    "VO-77",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.voucher)
	assert.True(t, repo.voucher.CommissionAmount.IsZero())
}

func TestService_RecordEventDispatchesPerSource(t *testing.T) {
	repo := &fakeEarningsRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	agentID := uuid.New()
	referred := uuid.New()

	_, err = svc.RecordEvent(context.Background(), RecordEventInput{
		Source:          enums.EarningSourceReferral,
		AgentID:         agentID,
		Price:           decimal.RequireFromString("1000"),
		RatePercent:     decimal.RequireFromString("1"),
		ReferredAgentID: referred,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.referral)
	assert.Equal(t, referred, repo.referral.ReferredAgentID)

	_, err = svc.RecordEvent(context.Background(), RecordEventInput{
		Source:      enums.EarningSourceWholesaleOrder,
		AgentID:     agentID,
		Price:       decimal.RequireFromString("250"),
		RatePercent: decimal.RequireFromString("4"),
		OrderRef:    "WS-42",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.wholesale)
	assert.Equal(t, "WS-42", repo.wholesale.OrderRef)
	assert.True(t, repo.wholesale.CommissionAmount.Equal(decimal.RequireFromString("10")))
}

func TestService_RecordEventValidation(t *testing.T) {
	svc, err := NewService(&fakeEarningsRepo{})
	require.NoError(t, err)

	_, err = svc.RecordEvent(context.Background(), RecordEventInput{
		Source:  enums.EarningSource("savings"),
		AgentID: uuid.New(),
		Price:   decimal.RequireFromString("10"),
	})
	assert.Error(t, err)

	_, err = svc.RecordEvent(context.Background(), RecordEventInput{
		Source: enums.EarningSourceDataOrder,
		Price:  decimal.RequireFromString("10"),
	})
	assert.Error(t, err)

	_, err = svc.RecordEvent(context.Background(), RecordEventInput{
		Source:  enums.EarningSourceDataOrder,
		AgentID: uuid.New(),
		Price:   decimal.RequireFromString("-10"),
	})
	assert.Error(t, err)
}
