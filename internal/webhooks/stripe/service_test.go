package stripewebhook

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	pkgerrors "github.com/quaidirect/quaidirect-backend/pkg/errors"
	"github.com/quaidirect/quaidirect-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

type fakeRepository struct {
	createFn func(ctx context.Context, purchase *models.CreditPurchase) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, purchase *models.CreditPurchase) error {
	if f.createFn != nil {
		return f.createFn(ctx, purchase)
	}
	return nil
}

type fakeCrediter struct {
	calls []struct {
		FishermanID uuid.UUID
		Credits     int
	}
	err error
}

func (f *fakeCrediter) AddCredits(ctx context.Context, fishermanID uuid.UUID, credits int) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, struct {
		FishermanID uuid.UUID
		Credits     int
	}{fishermanID, credits})
	return nil
}

func checkoutEvent(t *testing.T, eventID string, metadata map[string]string, amount int64) *stripe.Event {
	t.Helper()
	session := map[string]any{
		"id":           "cs_test_123",
		"metadata":     metadata,
		"amount_total": amount,
	}
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{
		ID:   eventID,
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func newTestService(t *testing.T, repo Repository, crediter crediter) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Purchases: repo,
		Messaging: crediter,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return svc
}

func TestService_HandleEventCreditsBalance(t *testing.T) {
	fishermanID := uuid.New()
	var recorded *models.CreditPurchase
	repo := &fakeRepository{
		createFn: func(ctx context.Context, purchase *models.CreditPurchase) error {
			recorded = purchase
			return nil
		},
	}
	crediter := &fakeCrediter{}
	svc := newTestService(t, repo, crediter)

	event := checkoutEvent(t, "evt_001", map[string]string{
		"fisherman_id": fishermanID.String(),
		"credits":      "50",
	}, 990)

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent error: %v", err)
	}
	if recorded == nil {
		t.Fatal("expected purchase row")
	}
	if recorded.StripeEventID != "evt_001" || recorded.Credits != 50 || recorded.AmountCents != 990 {
		t.Fatalf("unexpected purchase: %+v", recorded)
	}
	if len(crediter.calls) != 1 || crediter.calls[0].Credits != 50 || crediter.calls[0].FishermanID != fishermanID {
		t.Fatalf("unexpected credit calls: %+v", crediter.calls)
	}
}

func TestService_HandleEventIgnoresOtherTypes(t *testing.T) {
	repo := &fakeRepository{
		createFn: func(ctx context.Context, purchase *models.CreditPurchase) error {
			t.Fatal("unexpected purchase write")
			return nil
		},
	}
	crediter := &fakeCrediter{}
	svc := newTestService(t, repo, crediter)

	event := &stripe.Event{
		ID:   "evt_002",
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent error: %v", err)
	}
	if len(crediter.calls) != 0 {
		t.Fatal("ignored event must not credit")
	}
}

func TestService_HandleEventMetadataValidation(t *testing.T) {
	crediter := &fakeCrediter{}
	svc := newTestService(t, &fakeRepository{}, crediter)

	tests := []struct {
		name     string
		metadata map[string]string
	}{
		{"missing fisherman", map[string]string{"credits": "50"}},
		{"bad fisherman id", map[string]string{"fisherman_id": "nope", "credits": "50"}},
		{"missing credits", map[string]string{"fisherman_id": uuid.NewString()}},
		{"zero credits", map[string]string{"fisherman_id": uuid.NewString(), "credits": "0"}},
		{"negative credits", map[string]string{"fisherman_id": uuid.NewString(), "credits": "-5"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.HandleEvent(context.Background(), checkoutEvent(t, "evt_003", tc.metadata, 100))
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(crediter.calls) != 0 {
		t.Fatal("invalid metadata must not credit")
	}
}

func TestIdempotencyGuard(t *testing.T) {
	store := &fakeIdempotencyStore{values: map[string]string{}}
	guard, err := NewIdempotencyGuard(store, 0, "stripe-webhook")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard error: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_100")
	if err != nil || seen {
		t.Fatalf("first delivery seen=%v err=%v", seen, err)
	}
	seen, err = guard.CheckAndMark(ctx, "evt_100")
	if err != nil || !seen {
		t.Fatalf("replay seen=%v err=%v", seen, err)
	}

	if err := guard.Delete(ctx, "evt_100"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	seen, err = guard.CheckAndMark(ctx, "evt_100")
	if err != nil || seen {
		t.Fatalf("after delete seen=%v err=%v", seen, err)
	}
}
