package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/enums"
	"github.com/quaidirect/quaidirect-backend/pkg/errors"
	"github.com/quaidirect/quaidirect-backend/pkg/logger"
	"github.com/quaidirect/quaidirect-backend/pkg/metrics"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
)

// Service defines the messaging operations exposed to controllers and webhooks.
type Service interface {
	SendBatch(ctx context.Context, input SendBatchInput) (*SendBatchResult, error)
	SendInvitations(ctx context.Context, input SendInvitationsInput) (*SendInvitationsResult, error)
	Quota(ctx context.Context, fishermanID uuid.UUID) (*QuotaSnapshot, error)
	ListMessages(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) (*MessagePage, error)
	AddCredits(ctx context.Context, fishermanID uuid.UUID, credits int) error
}

// contactSource is the slice of the contacts feature the dispatch flow needs.
type contactSource interface {
	ListByIDs(ctx context.Context, fishermanID uuid.UUID, ids []uuid.UUID) ([]models.Contact, error)
	ListAll(ctx context.Context, fishermanID uuid.UUID) ([]models.Contact, error)
	TouchLastContacted(ctx context.Context, contactID uuid.UUID, at time.Time) error
}

// dropSource resolves the drop a new-arrival announcement describes.
type dropSource interface {
	LatestPublished(ctx context.Context, fishermanID uuid.UUID) (*models.Drop, error)
}

// emailSender matches the email client. The subject is fixed per batch, so the
// dispatcher sees it through a Transport adapter.
type emailSender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

type emailTransport struct {
	client  emailSender
	subject string
}

func (t emailTransport) Send(ctx context.Context, to, body string) (string, error) {
	return t.client.Send(ctx, to, t.subject, body)
}

// SendBatchInput is the fisherman-facing send operation.
type SendBatchInput struct {
	FishermanID uuid.UUID
	ContactIDs  []uuid.UUID
	MessageType enums.MessageType
	Channel     string
	Body        string
}

// SendBatchResult reports how many messages left on each channel.
type SendBatchResult struct {
	EmailCount int               `json:"email_count"`
	SMSCount   int               `json:"sms_count"`
	Results    []RecipientResult `json:"results"`
}

// SendInvitationsInput is the SMS invitation operation: every contact with a
// phone number, or an explicit subset.
type SendInvitationsInput struct {
	FishermanID uuid.UUID
	ContactIDs  []uuid.UUID
	TemplateID  string
	Message     string
}

// SendInvitationsResult carries per-recipient outcomes plus the quota state
// after the batch settled.
type SendInvitationsResult struct {
	Sent    int               `json:"sent"`
	Failed  int               `json:"failed"`
	Results []RecipientResult `json:"results"`
	Quota   QuotaSnapshot     `json:"quota"`
}

// MessagePage is one page of the fisherman's message history.
type MessagePage struct {
	Messages   []models.MessageLog `json:"messages"`
	NextCursor *string             `json:"next_cursor"`
}

// ServiceParams collects the messaging service dependencies. SMS and Email may
// be nil when the provider credentials are absent; batches needing them fail
// with a dependency error before any quota is touched.
type ServiceParams struct {
	Ledgers    LedgerRepository
	Logs       LogRepository
	Contacts   contactSource
	Drops      dropSource
	Plans      planSource
	Lease      *DispatchLease
	SMS        Transport
	Email      emailSender
	SignupLink string
	Logger     *logger.Logger
	Metrics    *metrics.DispatchMetrics
}

type service struct {
	ledgers    LedgerRepository
	logs       LogRepository
	contacts   contactSource
	drops      dropSource
	evaluator  *Evaluator
	updater    *LedgerUpdater
	lease      *DispatchLease
	sms        Transport
	email      emailSender
	signupLink string
	logg       *logger.Logger
	metrics    *metrics.DispatchMetrics
	now        func() time.Time
}

// NewService wires the messaging service.
func NewService(params ServiceParams) (Service, error) {
	if params.Ledgers == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Logs == nil {
		return nil, fmt.Errorf("log repository required")
	}
	if params.Contacts == nil {
		return nil, fmt.Errorf("contact source required")
	}
	if params.Plans == nil {
		return nil, fmt.Errorf("plan source required")
	}
	if params.Lease == nil {
		return nil, fmt.Errorf("dispatch lease required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		ledgers:    params.Ledgers,
		logs:       params.Logs,
		contacts:   params.Contacts,
		drops:      params.Drops,
		evaluator:  NewEvaluator(params.Ledgers, params.Plans),
		updater:    NewLedgerUpdater(params.Ledgers),
		lease:      params.Lease,
		sms:        params.SMS,
		email:      params.Email,
		signupLink: params.SignupLink,
		logg:       params.Logger,
		metrics:    params.Metrics,
		now:        time.Now,
	}, nil
}

func (s *service) SendBatch(ctx context.Context, input SendBatchInput) (*SendBatchResult, error) {
	if input.FishermanID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id is required")
	}
	if len(input.ContactIDs) == 0 {
		return nil, errors.New(errors.CodeValidation, "at least one contact is required")
	}
	if !input.MessageType.IsValid() {
		return nil, errors.New(errors.CodeValidation, "invalid message type")
	}
	wantEmail, wantSMS, err := parseChannelSelector(input.Channel)
	if err != nil {
		return nil, err
	}

	body, subject, err := s.resolveBody(ctx, input)
	if err != nil {
		return nil, err
	}

	contacts, err := s.contacts.ListByIDs(ctx, input.FishermanID, input.ContactIDs)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load contacts")
	}
	if len(contacts) == 0 {
		return nil, errors.New(errors.CodeNotFound, "no matching contacts found")
	}

	emailable := filterContacts(contacts, enums.ChannelEmail)
	smsable := filterContacts(contacts, enums.ChannelSMS)
	if wantSMS && !wantEmail && len(smsable) == 0 {
		return nil, errors.New(errors.CodeNotFound, "no contacts with a phone number")
	}
	if wantEmail && !wantSMS && len(emailable) == 0 {
		return nil, errors.New(errors.CodeNotFound, "no contacts with an email address")
	}

	out := &SendBatchResult{}

	if wantEmail && len(emailable) > 0 {
		if s.email == nil {
			return nil, errors.New(errors.CodeDependency, "email provider is not configured")
		}
		dispatcher, err := NewDispatcher(emailTransport{client: s.email, subject: subject}, s.logs, s.contacts, s.logg, s.metrics)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "build email dispatcher")
		}
		result, err := dispatcher.Dispatch(ctx, DispatchInput{
			FishermanID: input.FishermanID,
			Channel:     enums.ChannelEmail,
			Body:        body,
			SignupLink:  s.signupLink,
			Contacts:    emailable,
		})
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "dispatch email batch")
		}
		out.EmailCount = result.SuccessCount
		out.Results = append(out.Results, result.Results...)
	}

	if wantSMS && len(smsable) > 0 {
		result, err := s.sendSMSBatch(ctx, input.FishermanID, body, smsable)
		if err != nil {
			// Email deliveries from the same request already happened; they
			// stay reported even when the SMS leg is refused.
			if out.EmailCount > 0 {
				s.logg.Warn(ctx, "sms leg refused after email leg delivered: "+err.Error())
				return out, nil
			}
			return nil, err
		}
		out.SMSCount = result.SuccessCount
		out.Results = append(out.Results, result.Results...)
	}

	outcome := "sent"
	if out.EmailCount+out.SMSCount == 0 {
		outcome = "failed"
	}
	if s.metrics != nil {
		s.metrics.IncBatch(outcome)
	}
	return out, nil
}

func (s *service) SendInvitations(ctx context.Context, input SendInvitationsInput) (*SendInvitationsResult, error) {
	if input.FishermanID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id is required")
	}
	// An empty selection means the whole contact book.
	var contacts []models.Contact
	var err error
	if len(input.ContactIDs) == 0 {
		contacts, err = s.contacts.ListAll(ctx, input.FishermanID)
	} else {
		contacts, err = s.contacts.ListByIDs(ctx, input.FishermanID, input.ContactIDs)
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load contacts")
	}
	smsable := filterContacts(contacts, enums.ChannelSMS)
	if len(smsable) == 0 {
		return nil, errors.New(errors.CodeNotFound, "no contacts with a phone number")
	}

	body := input.Message
	if body == "" && input.TemplateID != "" {
		tpl, ok := InvitationTemplate(input.TemplateID)
		if !ok {
			return nil, errors.New(errors.CodeValidation, "unknown template id")
		}
		body = tpl
	}
	if body == "" {
		body = DefaultInvitationTemplate
	}

	result, err := s.sendSMSBatch(ctx, input.FishermanID, body, smsable)
	if err != nil {
		return nil, err
	}

	snapshot, snapErr := s.evaluator.Evaluate(ctx, input.FishermanID)
	if snapErr != nil {
		s.logg.Warn(ctx, "re-read quota after invitation batch: "+snapErr.Error())
	}
	if s.metrics != nil {
		outcome := "sent"
		if result.SuccessCount == 0 {
			outcome = "failed"
		}
		s.metrics.IncBatch(outcome)
	}
	return &SendInvitationsResult{
		Sent:    result.SuccessCount,
		Failed:  result.FailureCount,
		Results: result.Results,
		Quota:   snapshot,
	}, nil
}

// sendSMSBatch runs the quota-metered leg: lease, evaluate, dispatch, settle.
func (s *service) sendSMSBatch(ctx context.Context, fishermanID uuid.UUID, body string, contacts []models.Contact) (*DispatchResult, error) {
	if s.sms == nil {
		return nil, errors.New(errors.CodeDependency, "sms provider is not configured")
	}

	periodKey := PeriodKey(s.now())
	held, err := s.lease.Acquire(ctx, fishermanID, periodKey)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "acquire dispatch lease")
	}
	if held == nil {
		return nil, errors.New(errors.CodeConflict, "another batch is currently sending, retry shortly")
	}
	defer func() {
		if releaseErr := held.Release(ctx); releaseErr != nil {
			s.logg.Warn(ctx, "release dispatch lease: "+releaseErr.Error())
		}
	}()

	snapshot, err := s.evaluator.EvaluateAt(ctx, fishermanID, periodKey)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "evaluate quota")
	}
	if !snapshot.Feasible(len(contacts)) {
		return nil, errors.New(errors.CodeQuotaInsufficient, "message quota insufficient").
			WithDetails(map[string]int{
				"needed":    len(contacts),
				"available": snapshot.TotalAvailable,
			})
	}

	dispatcher, err := NewDispatcher(s.sms, s.logs, s.contacts, s.logg, s.metrics)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "build sms dispatcher")
	}
	result, err := dispatcher.Dispatch(ctx, DispatchInput{
		FishermanID: fishermanID,
		Channel:     enums.ChannelSMS,
		Body:        body,
		SignupLink:  s.signupLink,
		Contacts:    contacts,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "dispatch sms batch")
	}

	// Messages already left the gateway; a ledger write failure is logged
	// loudly and reconciled later rather than rolled back.
	split := SplitConsumption(snapshot, result.SuccessCount)
	if err := s.updater.Apply(ctx, fishermanID, periodKey, snapshot, split); err != nil {
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"fisherman_id":  fishermanID.String(),
			"period_key":    periodKey,
			"success_count": result.SuccessCount,
			"free_consumed": split.FreeConsumed,
			"paid_consumed": split.PaidConsumed,
		}), "persist quota consumption", err)
	}
	return result, nil
}

func (s *service) Quota(ctx context.Context, fishermanID uuid.UUID) (*QuotaSnapshot, error) {
	if fishermanID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id is required")
	}
	snapshot, err := s.evaluator.Evaluate(ctx, fishermanID)
	if err != nil {
		if appErr := errors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "evaluate quota")
	}
	return &snapshot, nil
}

func (s *service) ListMessages(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) (*MessagePage, error) {
	if fishermanID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id is required")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	entries, err := s.logs.ListByFisherman(ctx, fishermanID, params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list messages")
	}

	page := &MessagePage{Messages: entries}
	if len(entries) > limit {
		page.Messages = entries[:limit]
		last := page.Messages[limit-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.SentAt, ID: last.ID})
		page.NextCursor = &cursor
	}
	return page, nil
}

func (s *service) AddCredits(ctx context.Context, fishermanID uuid.UUID, credits int) error {
	if fishermanID == uuid.Nil {
		return errors.New(errors.CodeValidation, "fisherman id is required")
	}
	if credits <= 0 {
		return errors.New(errors.CodeValidation, "credits must be positive")
	}

	snapshot, err := s.evaluator.Evaluate(ctx, fishermanID)
	if err != nil {
		if appErr := errors.As(err); appErr != nil {
			return appErr
		}
		return errors.Wrap(errors.CodeInternal, err, "evaluate quota")
	}

	periodKey := PeriodKey(s.now())
	if err := s.ledgers.AddCredits(ctx, fishermanID, periodKey, snapshot.MonthlyAllocation, credits); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "credit paid balance")
	}
	return nil
}

// resolveBody picks the outgoing body for the batch: the caller's text for
// custom messages, the invitation template otherwise, and a composed
// announcement for new drops.
func (s *service) resolveBody(ctx context.Context, input SendBatchInput) (body, subject string, err error) {
	switch input.MessageType {
	case enums.MessageTypeCustom:
		if input.Body == "" {
			return "", "", errors.New(errors.CodeValidation, "body is required for custom messages")
		}
		return input.Body, "Message de votre pêcheur QuaiDirect", nil
	case enums.MessageTypeInvitation:
		if input.Body != "" {
			return input.Body, "Invitation QuaiDirect", nil
		}
		return DefaultInvitationTemplate, "Invitation QuaiDirect", nil
	case enums.MessageTypeNewDrop:
		if s.drops == nil {
			return "", "", errors.New(errors.CodeDependency, "drop announcements are not available")
		}
		drop, err := s.drops.LatestPublished(ctx, input.FishermanID)
		if err != nil {
			return "", "", errors.Wrap(errors.CodeInternal, err, "load latest drop")
		}
		if drop == nil {
			return "", "", errors.New(errors.CodeNotFound, "no published drop to announce")
		}
		body := fmt.Sprintf(
			"Bonjour {{first_name}}, arrivage de %s au port de %s à %s €/kg, vente à partir de %s. Détails : {{signup_link}}",
			drop.Species, drop.Port, drop.PricePerKg.StringFixed(2), drop.StartsAt.Format("15h04"),
		)
		if input.Body != "" {
			body = input.Body
		}
		return body, "Nouvel arrivage " + drop.Species, nil
	default:
		return "", "", errors.New(errors.CodeValidation, "invalid message type")
	}
}

func parseChannelSelector(value string) (wantEmail, wantSMS bool, err error) {
	switch value {
	case "email":
		return true, false, nil
	case "sms":
		return false, true, nil
	case "both", "":
		return true, true, nil
	default:
		return false, false, errors.New(errors.CodeValidation, "channel must be email, sms or both")
	}
}

func filterContacts(contacts []models.Contact, channel enums.Channel) []models.Contact {
	out := make([]models.Contact, 0, len(contacts))
	for _, contact := range contacts {
		switch channel {
		case enums.ChannelSMS:
			if contact.HasPhone() {
				out = append(out, contact)
			}
		case enums.ChannelEmail:
			if contact.HasEmail() {
				out = append(out, contact)
			}
		}
	}
	return out
}
