package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/pkg/enums"
)

// WalletTransaction is an immutable ledger entry. Rows are only ever appended;
// corrections are compensating entries, never edits. Amount is a positive
// magnitude whose sign comes from Type when the balance is derived.
type WalletTransaction struct {
	ID            uuid.UUID                     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID       uuid.UUID                     `gorm:"column:agent_id;type:uuid;not null;index"`
	Type          enums.WalletTransactionType   `gorm:"column:type;type:text;not null"`
	Amount        decimal.Decimal               `gorm:"column:amount;type:numeric(12,2);not null"`
	Status        enums.WalletTransactionStatus `gorm:"column:status;type:text;not null;default:'approved'"`
	SourceType    *string                       `gorm:"column:source_type"`
	SourceID      *uuid.UUID                    `gorm:"column:source_id;type:uuid"`
	ReferenceCode string                        `gorm:"column:reference_code;not null;default:''"`
	Metadata      json.RawMessage               `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time                     `gorm:"column:created_at;autoCreateTime"`
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	t.ID = ensureID(t.ID)
	return nil
}
