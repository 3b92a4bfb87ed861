package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/enums"
	"github.com/quaidirect/quaidirect-backend/pkg/logger"
	"github.com/quaidirect/quaidirect-backend/pkg/metrics"
)

// Transport delivers one rendered message to one address and returns the
// provider's message identifier.
type Transport interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// contactToucher stamps a contact after a successful delivery.
type contactToucher interface {
	TouchLastContacted(ctx context.Context, contactID uuid.UUID, at time.Time) error
}

// DispatchInput is one single-channel batch: a body template plus the ordered
// contacts to render and deliver it to.
type DispatchInput struct {
	FishermanID uuid.UUID
	Channel     enums.Channel
	Body        string
	SignupLink  string
	Contacts    []models.Contact
}

// RecipientResult records the outcome for one contact in a batch.
type RecipientResult struct {
	ContactID   uuid.UUID           `json:"contact_id"`
	FirstName   string              `json:"first_name"`
	Status      enums.MessageStatus `json:"status"`
	TransportID string              `json:"transport_id,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// DispatchResult aggregates a completed batch.
type DispatchResult struct {
	SuccessCount int
	FailureCount int
	Results      []RecipientResult
}

// Dispatcher walks a batch sequentially in caller order. Each recipient is
// isolated: a transport failure is recorded and the walk continues, so one bad
// phone number never blocks the rest of the contact book.
type Dispatcher struct {
	transport Transport
	logs      LogRepository
	contacts  contactToucher
	logg      *logger.Logger
	metrics   *metrics.DispatchMetrics
	now       func() time.Time
}

// NewDispatcher wires a dispatcher for one channel transport.
func NewDispatcher(transport Transport, logs LogRepository, contacts contactToucher, logg *logger.Logger, dm *metrics.DispatchMetrics) (*Dispatcher, error) {
	if transport == nil {
		return nil, errors.New("transport required")
	}
	if logs == nil {
		return nil, errors.New("log repository required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Dispatcher{
		transport: transport,
		logs:      logs,
		contacts:  contacts,
		logg:      logg,
		metrics:   dm,
		now:       time.Now,
	}, nil
}

// Dispatch renders and delivers the batch. The returned error covers only
// invalid input; per-recipient failures live in the result.
func (d *Dispatcher) Dispatch(ctx context.Context, input DispatchInput) (*DispatchResult, error) {
	if input.FishermanID == uuid.Nil {
		return nil, errors.New("fisherman id is required")
	}
	if !input.Channel.IsValid() {
		return nil, errors.New("invalid channel")
	}

	result := &DispatchResult{Results: make([]RecipientResult, 0, len(input.Contacts))}
	for _, contact := range input.Contacts {
		result.Results = append(result.Results, d.sendOne(ctx, input, contact, result))
	}
	return result, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, input DispatchInput, contact models.Contact, result *DispatchResult) RecipientResult {
	body := RenderTemplate(input.Body, TemplateVars{
		FirstName:  contact.FirstName,
		LastName:   contact.LastName,
		SignupLink: input.SignupLink,
	})

	recipient := RecipientResult{ContactID: contact.ID, FirstName: contact.FirstName}
	address, err := addressFor(input.Channel, contact)
	if err == nil {
		var transportID string
		transportID, err = d.transport.Send(ctx, address, body)
		if err == nil {
			recipient.TransportID = transportID
		}
	}

	sentAt := d.now()
	entry := &models.MessageLog{
		FishermanID: input.FishermanID,
		ContactID:   contact.ID,
		Channel:     input.Channel,
		Body:        body,
		SentAt:      sentAt,
	}

	if err != nil {
		message := err.Error()
		recipient.Status = enums.MessageStatusFailed
		recipient.Error = message
		entry.Status = enums.MessageStatusFailed
		entry.Error = &message
		result.FailureCount++
		if d.metrics != nil {
			d.metrics.IncFailed(string(input.Channel))
		}
		d.logg.Warn(d.logg.WithFields(ctx, map[string]any{
			"contact_id": contact.ID.String(),
			"channel":    string(input.Channel),
		}), "message delivery failed: "+message)
	} else {
		recipient.Status = enums.MessageStatusSent
		entry.Status = enums.MessageStatusSent
		entry.TransportID = &recipient.TransportID
		result.SuccessCount++
		if d.metrics != nil {
			d.metrics.IncSent(string(input.Channel))
		}
		if d.contacts != nil {
			if touchErr := d.contacts.TouchLastContacted(ctx, contact.ID, sentAt); touchErr != nil {
				d.logg.Warn(ctx, "touch last contacted: "+touchErr.Error())
			}
		}
	}

	// The audit row is best effort: the message already left, so a log write
	// failure must not flip the recipient outcome.
	if logErr := d.logs.Create(ctx, entry); logErr != nil {
		d.logg.Error(ctx, "record message log entry", logErr)
	}
	return recipient
}

func addressFor(channel enums.Channel, contact models.Contact) (string, error) {
	switch channel {
	case enums.ChannelSMS:
		if !contact.HasPhone() {
			return "", errors.New("contact has no phone number")
		}
		return *contact.Phone, nil
	case enums.ChannelEmail:
		if !contact.HasEmail() {
			return "", errors.New("contact has no email address")
		}
		return *contact.Email, nil
	default:
		return "", errors.New("invalid channel")
	}
}
