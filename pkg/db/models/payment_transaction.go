package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

// PaymentTransaction is one entry of the append-only payment ledger. Only the
// PENDING -> SUCCESS|FAILED status transition is ever applied to a row.
type PaymentTransaction struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ReservationID         uuid.UUID           `gorm:"column:reservation_id;type:uuid;not null;index"`
	Amount                decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Type                  enums.PaymentType   `gorm:"column:type;type:payment_type;not null"`
	Status                enums.PaymentStatus `gorm:"column:status;type:payment_status;not null"`
	Method                enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	ProviderTransactionID *string             `gorm:"column:provider_transaction_id"`
	RetryOf               *uuid.UUID          `gorm:"column:retry_of;type:uuid"`
	Note                  *string             `gorm:"column:note"`
	CreatedBy             string              `gorm:"column:created_by;not null"`
	SettledAt             *time.Time          `gorm:"column:settled_at"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
