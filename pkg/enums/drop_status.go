package enums

import "fmt"

// DropStatus maps to the drop_status enum in Postgres.
type DropStatus string

const (
	DropStatusDraft     DropStatus = "draft"
	DropStatusPublished DropStatus = "published"
	DropStatusClosed    DropStatus = "closed"
)

var validDropStatuses = []DropStatus{
	DropStatusDraft,
	DropStatusPublished,
	DropStatusClosed,
}

// IsValid checks whether the given status matches the canonical enum.
func (d DropStatus) IsValid() bool {
	for _, candidate := range validDropStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDropStatus converts raw strings into DropStatus.
func ParseDropStatus(value string) (DropStatus, error) {
	for _, candidate := range validDropStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid drop status %q", value)
}
