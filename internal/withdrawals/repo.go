package withdrawals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
	"github.com/resellerhq/resellerhq-backend/pkg/pagination"
)

// Repository manages persistence for withdrawal rows. Terminal transitions are
// conditional updates so concurrent admins cannot both win the same
// transition; callers check the affected-row count.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, withdrawal *models.Withdrawal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, page pagination.Request) ([]models.Withdrawal, int64, error)
	// MarkPaid transitions a payable withdrawal to paid. Returns the number of
	// rows updated; zero means the row was not payable at update time.
	MarkPaid(ctx context.Context, id uuid.UUID, adminID uuid.UUID, payoutReference string, at time.Time) (int64, error)
	// MarkRejected transitions a payable withdrawal to rejected. Returns the
	// number of rows updated.
	MarkRejected(ctx context.Context, id uuid.UUID, adminID uuid.UUID, notes string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a withdrawals repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	return r.db.WithContext(ctx).Create(withdrawal).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&withdrawal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

func (r *repository) ListByAgent(ctx context.Context, agentID uuid.UUID, page pagination.Request) ([]models.Withdrawal, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("agent_id = ?", agentID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var withdrawals []models.Withdrawal
	err = r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("requested_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&withdrawals).Error
	if err != nil {
		return nil, 0, err
	}
	return withdrawals, total, nil
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, adminID uuid.UUID, payoutReference string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("id = ? AND status IN ?", id, payableStatuses()).
		Updates(map[string]any{
			"status":           enums.WithdrawalStatusPaid,
			"payout_reference": payoutReference,
			"processed_by":     adminID,
			"paid_at":          at,
			"updated_at":       at,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) MarkRejected(ctx context.Context, id uuid.UUID, adminID uuid.UUID, notes string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("id = ? AND status IN ?", id, payableStatuses()).
		Updates(map[string]any{
			"status":       enums.WithdrawalStatusRejected,
			"admin_notes":  notes,
			"processed_by": adminID,
			"updated_at":   time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func payableStatuses() []enums.WithdrawalStatus {
	return []enums.WithdrawalStatus{
		enums.WithdrawalStatusRequested,
		enums.WithdrawalStatusProcessing,
	}
}
