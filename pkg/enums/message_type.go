package enums

import "fmt"

// MessageType identifies what a dispatch batch announces.
type MessageType string

const (
	MessageTypeInvitation MessageType = "invitation"
	MessageTypeNewDrop    MessageType = "new_drop"
	MessageTypeCustom     MessageType = "custom"
)

var validMessageTypes = []MessageType{
	MessageTypeInvitation,
	MessageTypeNewDrop,
	MessageTypeCustom,
}

// IsValid checks whether the given type matches the canonical enum.
func (m MessageType) IsValid() bool {
	for _, candidate := range validMessageTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMessageType converts raw strings into MessageType.
func ParseMessageType(value string) (MessageType, error) {
	for _, candidate := range validMessageTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message type %q", value)
}
