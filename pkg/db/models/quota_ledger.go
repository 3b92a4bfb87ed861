package models

import (
	"time"

	"github.com/google/uuid"
)

// QuotaLedger tracks outbound-message consumption for one fisherman and one
// calendar month. FreeUsed only grows within a period; PaidBalance carries
// across periods and never goes below zero.
type QuotaLedger struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FishermanID       uuid.UUID `gorm:"column:fisherman_id;type:uuid;not null;uniqueIndex:idx_usage_fisherman_period,priority:1"`
	PeriodKey         string    `gorm:"column:period_key;type:text;not null;uniqueIndex:idx_usage_fisherman_period,priority:2"`
	MonthlyAllocation int       `gorm:"column:monthly_allocation;not null"`
	FreeUsed          int       `gorm:"column:free_used;not null;default:0"`
	PaidBalance       int       `gorm:"column:paid_balance;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;type:timestamptz;default:now()"`
	UpdatedAt         time.Time `gorm:"column:updated_at;type:timestamptz;default:now()"`
}

func (QuotaLedger) TableName() string { return "fisherman_sms_usage" }

// FreeRemaining returns the unused portion of the monthly free allocation.
func (q QuotaLedger) FreeRemaining() int {
	remaining := q.MonthlyAllocation - q.FreeUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
