package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is one entry in a fisherman's customer book. Phone and email are
// both optional; a contact with neither cannot be messaged.
type Contact struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FishermanID     uuid.UUID  `gorm:"column:fisherman_id;type:uuid;not null;index"`
	FirstName       string     `gorm:"column:first_name;type:text;not null"`
	LastName        string     `gorm:"column:last_name;type:text"`
	Phone           *string    `gorm:"column:phone;type:text"`
	Email           *string    `gorm:"column:email;type:text"`
	LastContactedAt *time.Time `gorm:"column:last_contacted_at;type:timestamptz"`
	CreatedAt       time.Time  `gorm:"column:created_at;type:timestamptz;default:now()"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;type:timestamptz;default:now()"`
}

func (Contact) TableName() string { return "contacts" }

// HasPhone reports whether the contact can receive SMS.
func (c Contact) HasPhone() bool {
	return c.Phone != nil && *c.Phone != ""
}

// HasEmail reports whether the contact can receive email.
func (c Contact) HasEmail() bool {
	return c.Email != nil && *c.Email != ""
}
