package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quaidirect/quaidirect-backend/pkg/enums"
)

// Fisherman is the selling side of the marketplace: a registered boat owner
// announcing direct-from-dock sales.
type Fisherman struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;type:text;not null"`
	FirstName    string     `gorm:"column:first_name;type:text;not null"`
	LastName     string     `gorm:"column:last_name;type:text;not null"`
	BoatName     string     `gorm:"column:boat_name;type:text"`
	Port         string     `gorm:"column:port;type:text"`
	Phone        *string    `gorm:"column:phone;type:text"`
	Plan         enums.Plan `gorm:"column:plan;type:fisherman_plan;not null;default:'decouverte'"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamptz;default:now()"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;type:timestamptz;default:now()"`
}

func (Fisherman) TableName() string { return "fishermen" }
