package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/pkg/enums"
)

// CommissionFields is the shared reservation surface embedded in every
// event-source table. WithdrawalID doubles as the reservation lock: while it
// is set, the row is excluded from aggregation and from any other reservation.
type CommissionFields struct {
	CommissionAmount    decimal.Decimal `gorm:"column:commission_amount;type:numeric(12,2);not null;default:0"`
	CommissionWithdrawn bool            `gorm:"column:commission_withdrawn;not null;default:false"`
	WithdrawalID        *uuid.UUID      `gorm:"column:withdrawal_id;type:uuid"`
	WithdrawnAt         *time.Time      `gorm:"column:withdrawn_at"`
}

// ReferralConversion records a referred agent completing their first
// qualifying purchase.
type ReferralConversion struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID         uuid.UUID           `gorm:"column:agent_id;type:uuid;not null;index"`
	ReferredAgentID uuid.UUID           `gorm:"column:referred_agent_id;type:uuid;not null"`
	Status          enums.EarningStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	CommissionFields
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *ReferralConversion) BeforeCreate(tx *gorm.DB) error {
	r.ID = ensureID(r.ID)
	return nil
}

// DataOrder is a completed data-bundle purchase resold by an agent.
type DataOrder struct {
	ID       uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID  uuid.UUID           `gorm:"column:agent_id;type:uuid;not null;index"`
	Network  string              `gorm:"column:network;not null;default:''"`
	PlanName string              `gorm:"column:plan_name;not null;default:''"`
	Price    decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	Status   enums.EarningStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	CommissionFields
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (d *DataOrder) BeforeCreate(tx *gorm.DB) error {
	d.ID = ensureID(d.ID)
	return nil
}

// WholesaleOrder is a completed wholesale-goods order placed through an agent.
type WholesaleOrder struct {
	ID       uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID  uuid.UUID           `gorm:"column:agent_id;type:uuid;not null;index"`
	OrderRef string              `gorm:"column:order_ref;not null;default:''"`
	Total    decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	Status   enums.EarningStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	CommissionFields
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (w *WholesaleOrder) BeforeCreate(tx *gorm.DB) error {
	w.ID = ensureID(w.ID)
	return nil
}

// VoucherOrder is a completed voucher / e-commerce order credited to an agent.
type VoucherOrder struct {
	ID       uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID  uuid.UUID           `gorm:"column:agent_id;type:uuid;not null;index"`
	OrderRef string              `gorm:"column:order_ref;not null;default:''"`
	Total    decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	Status   enums.EarningStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	CommissionFields
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (v *VoucherOrder) BeforeCreate(tx *gorm.DB) error {
	v.ID = ensureID(v.ID)
	return nil
}
