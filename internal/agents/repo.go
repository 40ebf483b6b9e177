package agents

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/internal/repo"
	"github.com/resellerhq/resellerhq-backend/pkg/db"
	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
)

// ErrNotFound is returned when no agent matches the given id.
var ErrNotFound = errors.New("agent not found")

// ErrEmailTaken is returned when an agent with the same email already exists.
var ErrEmailTaken = errors.New("agent email already registered")

// Repository manages persistence for agents and their balance caches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, agent *models.Agent) error
	FindByID(ctx context.Context, agentID uuid.UUID) (*models.Agent, error)
	// ListIDs pages through agent ids for batch jobs, keyed by the last id seen.
	ListIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error)
	// UpdateWalletBalance overwrites the wallet balance cache.
	UpdateWalletBalance(ctx context.Context, agentID uuid.UUID, balance decimal.Decimal) error
	// UpdateCommissionBalance overwrites the available commission cache.
	UpdateCommissionBalance(ctx context.Context, agentID uuid.UUID, balance decimal.Decimal) error
}

type repository struct {
	repo.Base
}

// NewRepository returns an agent repository bound to the provided database.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(gdb)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, agent *models.Agent) error {
	if err := r.DB(ctx).Create(agent).Error; err != nil {
		if db.IsUniqueViolation(err, "email") {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	err := r.DB(ctx).Where("id = ?", agentID).First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &agent, nil
}

func (r *repository) ListIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.DB(ctx).Model(&models.Agent{}).Order("id ASC").Limit(limit)
	if afterID != uuid.Nil {
		query = query.Where("id > ?", afterID)
	}
	var ids []uuid.UUID
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) UpdateWalletBalance(ctx context.Context, agentID uuid.UUID, balance decimal.Decimal) error {
	return r.DB(ctx).Model(&models.Agent{}).
		Where("id = ?", agentID).
		Update("wallet_balance", balance).Error
}

func (r *repository) UpdateCommissionBalance(ctx context.Context, agentID uuid.UUID, balance decimal.Decimal) error {
	return r.DB(ctx).Model(&models.Agent{}).
		Where("id = ?", agentID).
		Update("available_commission_balance", balance).Error
}
