package earnings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
)

const earningsSchema = `
CREATE TABLE IF NOT EXISTS referral_conversions (
  id TEXT PRIMARY KEY,
  agent_id TEXT NOT NULL,
  referred_agent_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'completed',
  commission_amount NUMERIC NOT NULL DEFAULT 0,
  commission_withdrawn BOOLEAN NOT NULL DEFAULT 0,
  withdrawal_id TEXT,
  withdrawn_at DATETIME,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS data_orders (
  id TEXT PRIMARY KEY,
  agent_id TEXT NOT NULL,
  network TEXT NOT NULL DEFAULT '',
  plan_name TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'completed',
  commission_amount NUMERIC NOT NULL DEFAULT 0,
  commission_withdrawn BOOLEAN NOT NULL DEFAULT 0,
  withdrawal_id TEXT,
  withdrawn_at DATETIME,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS wholesale_orders (
  id TEXT PRIMARY KEY,
  agent_id TEXT NOT NULL,
  order_ref TEXT NOT NULL DEFAULT '',
  total NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'completed',
  commission_amount NUMERIC NOT NULL DEFAULT 0,
  commission_withdrawn BOOLEAN NOT NULL DEFAULT 0,
  withdrawal_id TEXT,
  withdrawn_at DATETIME,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS voucher_orders (
  id TEXT PRIMARY KEY,
  agent_id TEXT NOT NULL,
  order_ref TEXT NOT NULL DEFAULT '',
  total NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'completed',
  commission_amount NUMERIC NOT NULL DEFAULT 0,
  commission_withdrawn BOOLEAN NOT NULL DEFAULT 0,
  withdrawal_id TEXT,
  withdrawn_at DATETIME,
  created_at DATETIME
);
`

func setupEarningsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:earnings_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(earningsSchema).Error)
	return db
}

func seedEvent(t *testing.T, repo Repository, source enums.EarningSource, agentID uuid.UUID, amount string, createdAt time.Time) uuid.UUID {
	t.Helper()

	commission := decimal.RequireFromString(amount)
	fields := models.CommissionFields{CommissionAmount: commission}
	var (
		id  uuid.UUID
		err error
	)
	ctx := context.Background()
	switch source {
	case enums.EarningSourceReferral:
		row := &models.ReferralConversion{AgentID: agentID, ReferredAgentID: uuid.New(), Status: enums.EarningStatusCompleted, CommissionFields: fields, CreatedAt: createdAt}
		err = repo.CreateReferralConversion(ctx, row)
		id = row.ID
	case enums.EarningSourceDataOrder:
		row := &models.DataOrder{AgentID: agentID, Network: "mtn", PlanName: "2GB", Price: commission.Mul(decimal.NewFromInt(10)), Status: enums.EarningStatusCompleted, CommissionFields: fields, CreatedAt: createdAt}
		err = repo.CreateDataOrder(ctx, row)
		id = row.ID
	case enums.EarningSourceWholesaleOrder:
		row := &models.WholesaleOrder{AgentID: agentID, OrderRef: "WS-1", Total: commission.Mul(decimal.NewFromInt(10)), Status: enums.EarningStatusCompleted, CommissionFields: fields, CreatedAt: createdAt}
		err = repo.CreateWholesaleOrder(ctx, row)
		id = row.ID
	case enums.EarningSourceVoucherOrder:
		row := &models.VoucherOrder{AgentID: agentID, OrderRef: "VO-1", Total: commission.Mul(decimal.NewFromInt(10)), Status: enums.EarningStatusCompleted, CommissionFields: fields, CreatedAt: createdAt}
		err = repo.CreateVoucherOrder(ctx, row)
		id = row.ID
	default:
		t.Fatalf("unknown source %q", source)
	}
	require.NoError(t, err)
	return id
}

func TestRepository_ListEligibleMergesFIFO(t *testing.T) {
	db := setupEarningsTestDB(t)
	repo := NewRepository(db)
	agentID := uuid.New()
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	// Interleave creation order across tables so the merge has to sort.
	third := seedEvent(t, repo, enums.EarningSourceVoucherOrder, agentID, "0.30", base.Add(3*time.Minute))
	first := seedEvent(t, repo, enums.EarningSourceReferral, agentID, "0.10", base.Add(1*time.Minute))
	second := seedEvent(t, repo, enums.EarningSourceDataOrder, agentID, "0.20", base.Add(2*time.Minute))

	events, err := repo.ListEligible(context.Background(), agentID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, first, events[0].ID)
	assert.Equal(t, second, events[1].ID)
	assert.Equal(t, third, events[2].ID)
}

func TestRepository_ListEligibleExcludesZeroAndReserved(t *testing.T) {
	db := setupEarningsTestDB(t)
	repo := NewRepository(db)
	agentID := uuid.New()
	base := time.Date(2025, 8, 2, 10, 0, 0, 0, time.UTC)

	eligible := seedEvent(t, repo, enums.EarningSourceDataOrder, agentID, "0.50", base)
	seedEvent(t, repo, enums.EarningSourceDataOrder, agentID, "0", base.Add(time.Minute))
	reserved := seedEvent(t, repo, enums.EarningSourceDataOrder, agentID, "0.40", base.Add(2*time.Minute))
	seedEvent(t, repo, enums.EarningSourceDataOrder, uuid.New(), "0.90", base.Add(3*time.Minute))

	withdrawalID := uuid.New()
	require.NoError(t, db.Table("data_orders").Where("id = ?", reserved).Update("withdrawal_id", withdrawalID).Error)

	events, err := repo.ListEligible(context.Background(), agentID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eligible, events[0].ID)

	// The zero-commission row never shows up in lifetime sums either.
	all, err := repo.ListAll(context.Background(), agentID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepository_ReserveIsConditional(t *testing.T) {
	db := setupEarningsTestDB(t)
	repo := NewRepository(db)
	agentID := uuid.New()
	base := time.Date(2025, 8, 3, 10, 0, 0, 0, time.UTC)

	seedEvent(t, repo, enums.EarningSourceReferral, agentID, "0.25", base)
	seedEvent(t, repo, enums.EarningSourceVoucherOrder, agentID, "0.75", base.Add(time.Minute))

	events, err := repo.ListEligible(context.Background(), agentID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	withdrawalID := uuid.New()
	claimed, err := repo.Reserve(context.Background(), withdrawalID, events)
	require.NoError(t, err)
	assert.Equal(t, int64(2), claimed)

	// A competing reservation against the same rows claims nothing.
	competing := uuid.New()
	claimed, err = repo.Reserve(context.Background(), competing, events)
	require.NoError(t, err)
	assert.Equal(t, int64(0), claimed)

	byWithdrawal, err := repo.ListByWithdrawal(context.Background(), withdrawalID)
	require.NoError(t, err)
	assert.Len(t, byWithdrawal, 2)
}

func TestRepository_FinalizeAndRelease(t *testing.T) {
	db := setupEarningsTestDB(t)
	repo := NewRepository(db)
	agentID := uuid.New()
	base := time.Date(2025, 8, 4, 10, 0, 0, 0, time.UTC)

	seedEvent(t, repo, enums.EarningSourceWholesaleOrder, agentID, "1.00", base)
	events, err := repo.ListEligible(context.Background(), agentID)
	require.NoError(t, err)

	withdrawalID := uuid.New()
	_, err = repo.Reserve(context.Background(), withdrawalID, events)
	require.NoError(t, err)

	require.NoError(t, repo.FinalizeReservation(context.Background(), withdrawalID, base.Add(time.Hour)))
	finalized, err := repo.ListByWithdrawal(context.Background(), withdrawalID)
	require.NoError(t, err)
	require.Len(t, finalized, 1)
	assert.True(t, finalized[0].CommissionWithdrawn)

	// Finalized rows stay ineligible even after a release attempt on a
	// different withdrawal id.
	require.NoError(t, repo.ReleaseReservation(context.Background(), uuid.New()))
	remaining, err := repo.ListEligible(context.Background(), agentID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRepository_ReleaseRestoresEligibility(t *testing.T) {
	db := setupEarningsTestDB(t)
	repo := NewRepository(db)
	agentID := uuid.New()
	base := time.Date(2025, 8, 5, 10, 0, 0, 0, time.UTC)

	id := seedEvent(t, repo, enums.EarningSourceDataOrder, agentID, "0.60", base)
	events, err := repo.ListEligible(context.Background(), agentID)
	require.NoError(t, err)

	withdrawalID := uuid.New()
	_, err = repo.Reserve(context.Background(), withdrawalID, events)
	require.NoError(t, err)

	gone, err := repo.ListEligible(context.Background(), agentID)
	require.NoError(t, err)
	assert.Empty(t, gone)

	require.NoError(t, repo.ReleaseReservation(context.Background(), withdrawalID))
	back, err := repo.ListEligible(context.Background(), agentID)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, id, back[0].ID)
	assert.Nil(t, back[0].WithdrawalID)
}

func TestTableFor(t *testing.T) {
	table, err := TableFor(enums.EarningSourceDataOrder)
	require.NoError(t, err)
	assert.Equal(t, "data_orders", table)

	_, err = TableFor(enums.EarningSource("savings"))
	assert.Error(t, err)
}
