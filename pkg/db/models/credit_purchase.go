package models

import (
	"time"

	"github.com/google/uuid"
)

// CreditPurchase records one paid top-up of a fisherman's message balance.
// StripeEventID is unique so a replayed webhook cannot credit twice.
type CreditPurchase struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FishermanID   uuid.UUID `gorm:"column:fisherman_id;type:uuid;not null;index"`
	StripeEventID string    `gorm:"column:stripe_event_id;type:text;not null;uniqueIndex"`
	StripeSession string    `gorm:"column:stripe_session;type:text"`
	Credits       int       `gorm:"column:credits;not null"`
	AmountCents   int       `gorm:"column:amount_cents;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz;default:now()"`
}

func (CreditPurchase) TableName() string { return "credit_purchases" }
