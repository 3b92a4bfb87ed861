package enums

// MessageStatus maps to the message_status enum in Postgres.
type MessageStatus string

const (
	MessageStatusSent   MessageStatus = "sent"
	MessageStatusFailed MessageStatus = "failed"
)

// IsValid checks whether the given status matches the canonical enum.
func (m MessageStatus) IsValid() bool {
	return m == MessageStatusSent || m == MessageStatusFailed
}
