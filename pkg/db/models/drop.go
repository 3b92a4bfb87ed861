package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quaidirect/quaidirect-backend/pkg/enums"
)

// Drop is a direct-from-dock sale announcement: a fisherman lists a catch
// available for pickup at the quay during a time window.
type Drop struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FishermanID uuid.UUID        `gorm:"column:fisherman_id;type:uuid;not null;index"`
	Title       string           `gorm:"column:title;type:text;not null"`
	Species     string           `gorm:"column:species;type:text;not null"`
	Port        string           `gorm:"column:port;type:text;not null"`
	PricePerKg  decimal.Decimal  `gorm:"column:price_per_kg;type:numeric(10,2);not null"`
	Status      enums.DropStatus `gorm:"column:status;type:drop_status;not null;default:'draft'"`
	StartsAt    time.Time        `gorm:"column:starts_at;type:timestamptz;not null"`
	EndsAt      time.Time        `gorm:"column:ends_at;type:timestamptz;not null"`
	PublishedAt *time.Time       `gorm:"column:published_at;type:timestamptz"`
	CreatedAt   time.Time        `gorm:"column:created_at;type:timestamptz;default:now()"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;type:timestamptz;default:now()"`
}

func (Drop) TableName() string { return "drops" }
