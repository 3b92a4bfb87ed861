package messaging

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/errors"
)

type serviceFixture struct {
	service  Service
	ledgers  *fakeLedgerRepository
	logs     *fakeLogRepository
	contacts *fakeContactSource
	plans    *fakePlanSource
	drops    *fakeDropSource
	sms      *fakeTransport
	store    *fakeLeaseStore
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	fixture := &serviceFixture{
		ledgers:  &fakeLedgerRepository{},
		logs:     &fakeLogRepository{},
		contacts: &fakeContactSource{},
		plans:    &fakePlanSource{allocation: 100},
		drops:    &fakeDropSource{},
		sms:      &fakeTransport{},
		store:    newFakeLeaseStore(),
	}
	lease, err := NewDispatchLease(fixture.store, time.Minute)
	if err != nil {
		t.Fatalf("NewDispatchLease error: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Ledgers:    fixture.ledgers,
		Logs:       fixture.logs,
		Contacts:   fixture.contacts,
		Drops:      fixture.drops,
		Plans:      fixture.plans,
		Lease:      lease,
		SMS:        fixture.sms,
		SignupLink: "https://quaidirect.fr/inscription",
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	fixture.service = svc
	return fixture
}

func (f *serviceFixture) seedContacts(fishermanID uuid.UUID, count int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		contact := smsContact(fishermanID, "Contact", fmt.Sprintf("+3361%07d", i))
		f.contacts.contacts = append(f.contacts.contacts, contact)
		ids = append(ids, contact.ID)
	}
	return ids
}

func (f *serviceFixture) seedLedger(fishermanID uuid.UUID, allocation, freeUsed, paidBalance int) {
	f.plans.allocation = allocation
	f.ledgers.findFn = func(ctx context.Context, id uuid.UUID, periodKey string) (*models.QuotaLedger, error) {
		if id != fishermanID {
			return nil, nil
		}
		return &models.QuotaLedger{
			FishermanID:       fishermanID,
			PeriodKey:         periodKey,
			MonthlyAllocation: allocation,
			FreeUsed:          freeUsed,
			PaidBalance:       paidBalance,
		}, nil
	}
}

func TestService_SendInvitationsChargesFreeThenPaid(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	ids := fixture.seedContacts(fishermanID, 12)
	fixture.seedLedger(fishermanID, 100, 95, 10)

	var upserted *models.QuotaLedger
	fixture.ledgers.upsertFn = func(ctx context.Context, ledger *models.QuotaLedger) error {
		upserted = ledger
		return nil
	}

	result, err := fixture.service.SendInvitations(context.Background(), SendInvitationsInput{
		FishermanID: fishermanID,
		ContactIDs:  ids,
	})
	if err != nil {
		t.Fatalf("SendInvitations error: %v", err)
	}
	if result.Sent != 12 || result.Failed != 0 {
		t.Fatalf("sent/failed = %d/%d, want 12/0", result.Sent, result.Failed)
	}
	if upserted == nil {
		t.Fatal("expected ledger upsert after batch")
	}
	if upserted.FreeUsed != 100 || upserted.PaidBalance != 3 {
		t.Fatalf("ledger counters = %d/%d, want 100/3", upserted.FreeUsed, upserted.PaidBalance)
	}
	if len(fixture.logs.entries) != 12 {
		t.Fatalf("expected 12 log rows, got %d", len(fixture.logs.entries))
	}
	// Lease released once the batch settled.
	if len(fixture.store.values) != 0 {
		t.Fatalf("lease still held: %v", fixture.store.values)
	}
}

func TestService_SendInvitationsInfeasibleHasNoSideEffects(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	ids := fixture.seedContacts(fishermanID, 16)
	fixture.seedLedger(fishermanID, 100, 95, 10)

	upserts := 0
	fixture.ledgers.upsertFn = func(ctx context.Context, ledger *models.QuotaLedger) error {
		upserts++
		return nil
	}

	_, err := fixture.service.SendInvitations(context.Background(), SendInvitationsInput{
		FishermanID: fishermanID,
		ContactIDs:  ids,
	})
	appErr := errors.As(err)
	if appErr == nil || appErr.Code() != errors.CodeQuotaInsufficient {
		t.Fatalf("expected quota insufficient, got %v", err)
	}
	details, ok := appErr.Details().(map[string]int)
	if !ok || details["needed"] != 16 || details["available"] != 15 {
		t.Fatalf("unexpected details: %+v", appErr.Details())
	}
	if len(fixture.sms.sent) != 0 {
		t.Fatal("refused batch must not reach the transport")
	}
	if len(fixture.logs.entries) != 0 {
		t.Fatal("refused batch must not write log rows")
	}
	if upserts != 0 {
		t.Fatal("refused batch must not touch the ledger")
	}
	if len(fixture.store.values) != 0 {
		t.Fatal("lease must be released after refusal")
	}
}

func TestService_SendInvitationsOnlySuccessesCharged(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	ids := fixture.seedContacts(fishermanID, 5)
	fixture.seedLedger(fishermanID, 100, 0, 0)

	// Two of five numbers bounce.
	fixture.sms.failFor = map[string]error{
		*fixture.contacts.contacts[1].Phone: errTransport("bad number"),
		*fixture.contacts.contacts[3].Phone: errTransport("gateway timeout"),
	}

	var upserted *models.QuotaLedger
	fixture.ledgers.upsertFn = func(ctx context.Context, ledger *models.QuotaLedger) error {
		upserted = ledger
		return nil
	}

	result, err := fixture.service.SendInvitations(context.Background(), SendInvitationsInput{
		FishermanID: fishermanID,
		ContactIDs:  ids,
	})
	if err != nil {
		t.Fatalf("SendInvitations error: %v", err)
	}
	if result.Sent != 3 || result.Failed != 2 {
		t.Fatalf("sent/failed = %d/%d, want 3/2", result.Sent, result.Failed)
	}
	if upserted == nil || upserted.FreeUsed != 3 {
		t.Fatalf("only the 3 successes should be charged: %+v", upserted)
	}
}

func TestService_SendInvitationsLeaseContention(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	ids := fixture.seedContacts(fishermanID, 2)

	// Another batch already holds the month's lease.
	key := fixture.store.QuotaLeaseKey(fishermanID.String(), PeriodKey(time.Now()))
	fixture.store.values[key] = "other-batch"

	_, err := fixture.service.SendInvitations(context.Background(), SendInvitationsInput{
		FishermanID: fishermanID,
		ContactIDs:  ids,
	})
	appErr := errors.As(err)
	if appErr == nil || appErr.Code() != errors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(fixture.sms.sent) != 0 {
		t.Fatal("contended batch must not send")
	}
}

func TestService_SendInvitationsEmptySelectionUsesWholeBook(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	fixture.seedContacts(fishermanID, 3)
	fixture.seedLedger(fishermanID, 100, 0, 0)

	// A contact without a phone number is skipped, not an error.
	emailOnly := smsContact(fishermanID, "SansTel", "")
	fixture.contacts.contacts = append(fixture.contacts.contacts, emailOnly)

	result, err := fixture.service.SendInvitations(context.Background(), SendInvitationsInput{
		FishermanID: fishermanID,
	})
	if err != nil {
		t.Fatalf("SendInvitations error: %v", err)
	}
	if result.Sent != 3 || result.Failed != 0 {
		t.Fatalf("sent/failed = %d/%d, want 3/0", result.Sent, result.Failed)
	}
	if len(fixture.sms.sent) != 3 {
		t.Fatalf("transport saw %d sends, want 3", len(fixture.sms.sent))
	}
}

func TestService_SendInvitationsTemplateSelection(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	ids := fixture.seedContacts(fishermanID, 1)
	fixture.seedLedger(fishermanID, 100, 0, 0)

	result, err := fixture.service.SendInvitations(context.Background(), SendInvitationsInput{
		FishermanID: fishermanID,
		ContactIDs:  ids,
		TemplateID:  "relance",
	})
	if err != nil {
		t.Fatalf("SendInvitations error: %v", err)
	}
	if result.Sent != 1 {
		t.Fatalf("sent = %d, want 1", result.Sent)
	}
	if !strings.HasPrefix(fixture.sms.sent[0].Body, "Bonjour Contact, pensez à rejoindre") {
		t.Fatalf("unexpected body %q", fixture.sms.sent[0].Body)
	}
}

func TestService_SendInvitationsUnknownTemplate(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	ids := fixture.seedContacts(fishermanID, 1)
	fixture.seedLedger(fishermanID, 100, 0, 0)

	_, err := fixture.service.SendInvitations(context.Background(), SendInvitationsInput{
		FishermanID: fishermanID,
		ContactIDs:  ids,
		TemplateID:  "newsletter",
	})
	appErr := errors.As(err)
	if appErr == nil || appErr.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fixture.sms.sent) != 0 {
		t.Fatal("unknown template must not send")
	}
}

func TestService_SendInvitationsLedgerWriteFailureKeepsResult(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	ids := fixture.seedContacts(fishermanID, 3)
	fixture.seedLedger(fishermanID, 100, 0, 0)
	fixture.ledgers.upsertFn = func(ctx context.Context, ledger *models.QuotaLedger) error {
		return errTransport("db down")
	}

	result, err := fixture.service.SendInvitations(context.Background(), SendInvitationsInput{
		FishermanID: fishermanID,
		ContactIDs:  ids,
	})
	if err != nil {
		t.Fatalf("delivered batch must not fail on ledger write: %v", err)
	}
	if result.Sent != 3 {
		t.Fatalf("sent = %d, want 3", result.Sent)
	}
}

func TestService_SendInvitationsNoPhoneContacts(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	contact := models.Contact{ID: uuid.New(), FishermanID: fishermanID, FirstName: "Luc", Email: strPtr("luc@example.fr")}
	fixture.contacts.contacts = append(fixture.contacts.contacts, contact)

	_, err := fixture.service.SendInvitations(context.Background(), SendInvitationsInput{
		FishermanID: fishermanID,
		ContactIDs:  []uuid.UUID{contact.ID},
	})
	appErr := errors.As(err)
	if appErr == nil || appErr.Code() != errors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_SendInvitationsSMSUnconfigured(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	ids := fixture.seedContacts(fishermanID, 1)

	svc, err := NewService(ServiceParams{
		Ledgers:    fixture.ledgers,
		Logs:       fixture.logs,
		Contacts:   fixture.contacts,
		Drops:      fixture.drops,
		Plans:      fixture.plans,
		Lease:      mustLease(t, fixture.store),
		SMS:        nil,
		SignupLink: "https://quaidirect.fr/inscription",
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	_, err = svc.SendInvitations(context.Background(), SendInvitationsInput{
		FishermanID: fishermanID,
		ContactIDs:  ids,
	})
	appErr := errors.As(err)
	if appErr == nil || appErr.Code() != errors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestService_SendBatchCustomRequiresBody(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	ids := fixture.seedContacts(fishermanID, 1)

	_, err := fixture.service.SendBatch(context.Background(), SendBatchInput{
		FishermanID: fishermanID,
		ContactIDs:  ids,
		MessageType: "custom",
		Channel:     "sms",
	})
	appErr := errors.As(err)
	if appErr == nil || appErr.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_SendBatchSMSOnly(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	ids := fixture.seedContacts(fishermanID, 4)
	fixture.seedLedger(fishermanID, 100, 0, 0)

	result, err := fixture.service.SendBatch(context.Background(), SendBatchInput{
		FishermanID: fishermanID,
		ContactIDs:  ids,
		MessageType: "custom",
		Channel:     "sms",
		Body:        "Vente ce soir au port, {{first_name}} !",
	})
	if err != nil {
		t.Fatalf("SendBatch error: %v", err)
	}
	if result.SMSCount != 4 || result.EmailCount != 0 {
		t.Fatalf("counts = sms %d email %d, want 4/0", result.SMSCount, result.EmailCount)
	}
}

func TestService_QuotaReadOnly(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	fixture.seedLedger(fishermanID, 100, 95, 10)

	upserts := 0
	fixture.ledgers.upsertFn = func(ctx context.Context, ledger *models.QuotaLedger) error {
		upserts++
		return nil
	}

	snapshot, err := fixture.service.Quota(context.Background(), fishermanID)
	if err != nil {
		t.Fatalf("Quota error: %v", err)
	}
	if snapshot.FreeRemaining != 5 || snapshot.TotalAvailable != 15 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if upserts != 0 {
		t.Fatal("quota read must not write the ledger")
	}
}

func TestService_AddCredits(t *testing.T) {
	fixture := newServiceFixture(t)
	fishermanID := uuid.New()
	fixture.seedLedger(fishermanID, 100, 20, 0)

	var gotAllocation, gotCredits int
	fixture.ledgers.addCreditsFn = func(ctx context.Context, id uuid.UUID, periodKey string, allocation, credits int) error {
		gotAllocation, gotCredits = allocation, credits
		return nil
	}

	if err := fixture.service.AddCredits(context.Background(), fishermanID, 50); err != nil {
		t.Fatalf("AddCredits error: %v", err)
	}
	if gotAllocation != 100 || gotCredits != 50 {
		t.Fatalf("AddCredits forwarded %d/%d, want 100/50", gotAllocation, gotCredits)
	}

	if err := fixture.service.AddCredits(context.Background(), fishermanID, 0); err == nil {
		t.Fatal("zero credits must be refused")
	}
}

func mustLease(t *testing.T, store *fakeLeaseStore) *DispatchLease {
	t.Helper()
	lease, err := NewDispatchLease(store, time.Minute)
	if err != nil {
		t.Fatalf("NewDispatchLease error: %v", err)
	}
	return lease
}

type errTransport string

func (e errTransport) Error() string { return string(e) }
