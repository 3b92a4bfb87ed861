package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
	"gorm.io/gorm"
)

type fakeLedgerRepository struct {
	findFn       func(ctx context.Context, fishermanID uuid.UUID, periodKey string) (*models.QuotaLedger, error)
	upsertFn     func(ctx context.Context, ledger *models.QuotaLedger) error
	addCreditsFn func(ctx context.Context, fishermanID uuid.UUID, periodKey string, allocation, credits int) error
}

func (f *fakeLedgerRepository) WithTx(tx *gorm.DB) LedgerRepository { return f }

func (f *fakeLedgerRepository) FindByPeriod(ctx context.Context, fishermanID uuid.UUID, periodKey string) (*models.QuotaLedger, error) {
	if f.findFn != nil {
		return f.findFn(ctx, fishermanID, periodKey)
	}
	return nil, nil
}

func (f *fakeLedgerRepository) Upsert(ctx context.Context, ledger *models.QuotaLedger) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, ledger)
	}
	return nil
}

func (f *fakeLedgerRepository) AddCredits(ctx context.Context, fishermanID uuid.UUID, periodKey string, allocation, credits int) error {
	if f.addCreditsFn != nil {
		return f.addCreditsFn(ctx, fishermanID, periodKey, allocation, credits)
	}
	return nil
}

type fakeLogRepository struct {
	mu      sync.Mutex
	entries []models.MessageLog
	createFn func(ctx context.Context, entry *models.MessageLog) error
}

func (f *fakeLogRepository) WithTx(tx *gorm.DB) LogRepository { return f }

func (f *fakeLogRepository) Create(ctx context.Context, entry *models.MessageLog) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogRepository) ListByFisherman(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) ([]models.MessageLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.MessageLog, 0, len(f.entries))
	for _, entry := range f.entries {
		if entry.FishermanID == fishermanID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeContactSource struct {
	contacts []models.Contact
	touched  []uuid.UUID
	listErr  error
}

func (f *fakeContactSource) ListAll(ctx context.Context, fishermanID uuid.UUID) ([]models.Contact, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Contact, 0, len(f.contacts))
	for _, contact := range f.contacts {
		if contact.FishermanID == fishermanID {
			out = append(out, contact)
		}
	}
	return out, nil
}

func (f *fakeContactSource) ListByIDs(ctx context.Context, fishermanID uuid.UUID, ids []uuid.UUID) ([]models.Contact, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]models.Contact, 0, len(f.contacts))
	for _, contact := range f.contacts {
		if contact.FishermanID == fishermanID && wanted[contact.ID] {
			out = append(out, contact)
		}
	}
	return out, nil
}

func (f *fakeContactSource) TouchLastContacted(ctx context.Context, contactID uuid.UUID, at time.Time) error {
	f.touched = append(f.touched, contactID)
	return nil
}

type fakePlanSource struct {
	allocation int
	err        error
}

func (f *fakePlanSource) MonthlyAllocation(ctx context.Context, fishermanID uuid.UUID) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.allocation, nil
}

type fakeDropSource struct {
	drop *models.Drop
	err  error
}

func (f *fakeDropSource) LatestPublished(ctx context.Context, fishermanID uuid.UUID) (*models.Drop, error) {
	return f.drop, f.err
}

// fakeTransport records sends in order and fails any address listed in failFor.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error
}

type sentMessage struct {
	To   string
	Body string
}

func (f *fakeTransport) Send(ctx context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[to]; ok {
		return "", err
	}
	f.sent = append(f.sent, sentMessage{To: to, Body: body})
	return fmt.Sprintf("SM%04d", len(f.sent)), nil
}

// fakeLeaseStore is an in-memory SETNX store.
type fakeLeaseStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newFakeLeaseStore() *fakeLeaseStore {
	return &fakeLeaseStore{values: map[string]string{}}
}

func (f *fakeLeaseStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeLeaseStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeLeaseStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeLeaseStore) QuotaLeaseKey(fishermanID, periodKey string) string {
	return "qd:lease:quota:" + fishermanID + ":" + periodKey
}
