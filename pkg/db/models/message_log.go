package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quaidirect/quaidirect-backend/pkg/enums"
)

// MessageLog is the append-only audit trail of outbound messages: one row per
// contact per send attempt, never updated after creation.
type MessageLog struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FishermanID uuid.UUID           `gorm:"column:fisherman_id;type:uuid;not null;index"`
	ContactID   uuid.UUID           `gorm:"column:contact_id;type:uuid;not null"`
	Channel     enums.Channel       `gorm:"column:channel;type:message_channel;not null"`
	Body        string              `gorm:"column:body;type:text;not null"`
	Status      enums.MessageStatus `gorm:"column:status;type:message_status;not null"`
	TransportID *string             `gorm:"column:transport_id;type:text"`
	Error       *string             `gorm:"column:error;type:text"`
	SentAt      time.Time           `gorm:"column:sent_at;type:timestamptz;default:now()"`
}

func (MessageLog) TableName() string { return "sms_messages" }
