package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Agent is a platform reseller. The two balance columns are denormalized
// caches: WalletBalance is rederivable from approved wallet transactions and
// AvailableCommissionBalance from the unreserved earning events. Only the
// engine writes them, never request handlers.
type Agent struct {
	ID                         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName                   string          `gorm:"column:full_name;not null"`
	Email                      string          `gorm:"column:email;not null;uniqueIndex"`
	Phone                      string          `gorm:"column:phone;not null"`
	WalletBalance              decimal.Decimal `gorm:"column:wallet_balance;type:numeric(12,2);not null;default:0"`
	AvailableCommissionBalance decimal.Decimal `gorm:"column:available_commission_balance;type:numeric(12,2);not null;default:0"`
	CreatedAt                  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	a.ID = ensureID(a.ID)
	return nil
}

// ensureID assigns an application-side UUID when the database default is not
// available (the sqlite dev driver has no gen_random_uuid()).
func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
