package earnings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
)

// Event is the neutral earning-event shape shared by all four source tables.
// The sources stay heterogeneous rows; aggregation fans out per table and
// merges in memory rather than forcing a polymorphic schema.
type Event struct {
	Source              enums.EarningSource `gorm:"-"`
	ID                  uuid.UUID           `gorm:"column:id"`
	AgentID             uuid.UUID           `gorm:"column:agent_id"`
	CommissionAmount    decimal.Decimal     `gorm:"column:commission_amount"`
	CommissionWithdrawn bool                `gorm:"column:commission_withdrawn"`
	WithdrawalID        *uuid.UUID          `gorm:"column:withdrawal_id"`
	CreatedAt           time.Time           `gorm:"column:created_at"`
}

// sourceTables maps each source to its physical table, in fan-out order.
var sourceTables = map[enums.EarningSource]string{
	enums.EarningSourceReferral:       "referral_conversions",
	enums.EarningSourceDataOrder:      "data_orders",
	enums.EarningSourceWholesaleOrder: "wholesale_orders",
	enums.EarningSourceVoucherOrder:   "voucher_orders",
}

// TableFor returns the physical table backing the given source.
func TableFor(source enums.EarningSource) (string, error) {
	table, ok := sourceTables[source]
	if !ok {
		return "", fmt.Errorf("unknown earning source %q", source)
	}
	return table, nil
}

// Repository manages persistence for the four event-source tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// ListEligible returns the agent's unreserved positive-commission events
	// across all four sources, merged oldest-first.
	ListEligible(ctx context.Context, agentID uuid.UUID) ([]Event, error)
	// ListAll returns every positive-commission event for the agent regardless
	// of reservation state (lifetime earnings).
	ListAll(ctx context.Context, agentID uuid.UUID) ([]Event, error)
	ListByWithdrawal(ctx context.Context, withdrawalID uuid.UUID) ([]Event, error)
	// Reserve attaches withdrawalID to the given events with a conditional
	// update and reports how many rows were actually claimed. A shortfall
	// means a concurrent reservation won the race on some rows.
	Reserve(ctx context.Context, withdrawalID uuid.UUID, events []Event) (int64, error)
	// FinalizeReservation permanently marks every event reserved by the
	// withdrawal as withdrawn.
	FinalizeReservation(ctx context.Context, withdrawalID uuid.UUID, at time.Time) error
	// ReleaseReservation clears the reservation so the events become eligible
	// again.
	ReleaseReservation(ctx context.Context, withdrawalID uuid.UUID) error

	CreateReferralConversion(ctx context.Context, row *models.ReferralConversion) error
	CreateDataOrder(ctx context.Context, row *models.DataOrder) error
	CreateWholesaleOrder(ctx context.Context, row *models.WholesaleOrder) error
	CreateVoucherOrder(ctx context.Context, row *models.VoucherOrder) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an earnings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListEligible(ctx context.Context, agentID uuid.UUID) ([]Event, error) {
	return r.fanOut(ctx, agentID, true)
}

func (r *repository) ListAll(ctx context.Context, agentID uuid.UUID) ([]Event, error) {
	return r.fanOut(ctx, agentID, false)
}

func (r *repository) fanOut(ctx context.Context, agentID uuid.UUID, eligibleOnly bool) ([]Event, error) {
	var merged []Event
	for _, source := range enums.AllEarningSources() {
		table := sourceTables[source]
		query := r.db.WithContext(ctx).Table(table).
			Select("id, agent_id, commission_amount, commission_withdrawn, withdrawal_id, created_at").
			Where("agent_id = ?", agentID).
			Where("commission_amount > 0")
		if eligibleOnly {
			query = query.Where("commission_withdrawn = ? AND withdrawal_id IS NULL", false)
		}

		var rows []Event
		if err := query.Order("created_at ASC").Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		for i := range rows {
			rows[i].Source = source
		}
		merged = append(merged, rows...)
	}

	// FIFO across sources; id as a deterministic tie-break.
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID.String() < merged[j].ID.String()
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	return merged, nil
}

func (r *repository) ListByWithdrawal(ctx context.Context, withdrawalID uuid.UUID) ([]Event, error) {
	var merged []Event
	for _, source := range enums.AllEarningSources() {
		table := sourceTables[source]
		var rows []Event
		err := r.db.WithContext(ctx).Table(table).
			Select("id, agent_id, commission_amount, commission_withdrawn, withdrawal_id, created_at").
			Where("withdrawal_id = ?", withdrawalID).
			Order("created_at ASC").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		for i := range rows {
			rows[i].Source = source
		}
		merged = append(merged, rows...)
	}
	return merged, nil
}

func (r *repository) Reserve(ctx context.Context, withdrawalID uuid.UUID, events []Event) (int64, error) {
	if withdrawalID == uuid.Nil {
		return 0, fmt.Errorf("withdrawal id is required")
	}

	idsBySource := map[enums.EarningSource][]uuid.UUID{}
	for _, event := range events {
		idsBySource[event.Source] = append(idsBySource[event.Source], event.ID)
	}

	var updated int64
	for source, ids := range idsBySource {
		table := sourceTables[source]
		// The eligibility predicate in the WHERE clause is the optimistic
		// lock: a row already claimed by another withdrawal is not updated.
		res := r.db.WithContext(ctx).Table(table).
			Where("id IN ?", ids).
			Where("commission_withdrawn = ? AND withdrawal_id IS NULL", false).
			Update("withdrawal_id", withdrawalID)
		if res.Error != nil {
			return 0, fmt.Errorf("reserving %s rows: %w", table, res.Error)
		}
		updated += res.RowsAffected
	}
	return updated, nil
}

func (r *repository) FinalizeReservation(ctx context.Context, withdrawalID uuid.UUID, at time.Time) error {
	for _, source := range enums.AllEarningSources() {
		table := sourceTables[source]
		err := r.db.WithContext(ctx).Table(table).
			Where("withdrawal_id = ?", withdrawalID).
			Updates(map[string]any{
				"commission_withdrawn": true,
				"withdrawn_at":         at,
			}).Error
		if err != nil {
			return fmt.Errorf("finalizing %s rows: %w", table, err)
		}
	}
	return nil
}

func (r *repository) ReleaseReservation(ctx context.Context, withdrawalID uuid.UUID) error {
	for _, source := range enums.AllEarningSources() {
		table := sourceTables[source]
		err := r.db.WithContext(ctx).Table(table).
			Where("withdrawal_id = ?", withdrawalID).
			Updates(map[string]any{
				"withdrawal_id":        nil,
				"commission_withdrawn": false,
				"withdrawn_at":         nil,
			}).Error
		if err != nil {
			return fmt.Errorf("releasing %s rows: %w", table, err)
		}
	}
	return nil
}

func (r *repository) CreateReferralConversion(ctx context.Context, row *models.ReferralConversion) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) CreateDataOrder(ctx context.Context, row *models.DataOrder) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) CreateWholesaleOrder(ctx context.Context, row *models.WholesaleOrder) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) CreateVoucherOrder(ctx context.Context, row *models.VoucherOrder) error {
	return r.db.WithContext(ctx).Create(row).Error
}
