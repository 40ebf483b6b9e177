package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
	"github.com/resellerhq/resellerhq-backend/pkg/pagination"
)

// Repository manages the append-only wallet transaction ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, txn *models.WalletTransaction) error
	ListByAgent(ctx context.Context, agentID uuid.UUID, page pagination.Request) ([]models.WalletTransaction, int64, error)
	// ListApproved returns every approved transaction for the agent. Balances
	// are derived from these rows, so the result is not paginated.
	ListApproved(ctx context.Context, agentID uuid.UUID) ([]models.WalletTransaction, error)
	// CountBySource counts ledger rows written for one source record; settled
	// withdrawals must never produce more than one deduction row.
	CountBySource(ctx context.Context, txnType enums.WalletTransactionType, sourceType string, sourceID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListByAgent(ctx context.Context, agentID uuid.UUID, page pagination.Request) ([]models.WalletTransaction, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("agent_id = ?", agentID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var txns []models.WalletTransaction
	err = r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (r *repository) ListApproved(ctx context.Context, agentID uuid.UUID) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("agent_id = ? AND status = ?", agentID, enums.WalletTransactionStatusApproved).
		Order("created_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) CountBySource(ctx context.Context, txnType enums.WalletTransactionType, sourceType string, sourceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("type = ? AND source_type = ? AND source_id = ?", txnType, sourceType, sourceID).
		Count(&count).Error
	return count, err
}
