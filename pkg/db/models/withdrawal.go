package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/pkg/enums"
)

// Withdrawal is a payout request. Amount is the sum of the earning events
// reserved at creation time; paid and rejected are terminal.
type Withdrawal struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID         uuid.UUID              `gorm:"column:agent_id;type:uuid;not null;index"`
	Amount          decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Status          enums.WithdrawalStatus `gorm:"column:status;type:text;not null;default:'requested'"`
	PayoutReference *string                `gorm:"column:payout_reference"`
	AdminNotes      *string                `gorm:"column:admin_notes"`
	ProcessedBy     *uuid.UUID             `gorm:"column:processed_by;type:uuid"`
	RequestedAt     time.Time              `gorm:"column:requested_at;autoCreateTime"`
	PaidAt          *time.Time             `gorm:"column:paid_at"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Withdrawal) BeforeCreate(tx *gorm.DB) error {
	w.ID = ensureID(w.ID)
	return nil
}
