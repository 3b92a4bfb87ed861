package drops

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/enums"
	"github.com/quaidirect/quaidirect-backend/pkg/errors"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeRepository struct {
	createFn  func(ctx context.Context, drop *models.Drop) error
	findFn    func(ctx context.Context, fishermanID, dropID uuid.UUID) (*models.Drop, error)
	publishFn func(ctx context.Context, fishermanID, dropID uuid.UUID, at time.Time) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, drop *models.Drop) error {
	if f.createFn != nil {
		return f.createFn(ctx, drop)
	}
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, fishermanID, dropID uuid.UUID) (*models.Drop, error) {
	if f.findFn != nil {
		return f.findFn(ctx, fishermanID, dropID)
	}
	return nil, nil
}

func (f *fakeRepository) List(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) ([]models.Drop, error) {
	return nil, nil
}

func (f *fakeRepository) LatestPublished(ctx context.Context, fishermanID uuid.UUID) (*models.Drop, error) {
	return nil, nil
}

func (f *fakeRepository) Publish(ctx context.Context, fishermanID, dropID uuid.UUID, at time.Time) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, fishermanID, dropID, at)
	}
	return nil
}

func (f *fakeRepository) Close(ctx context.Context, fishermanID, dropID uuid.UUID) error {
	return nil
}

func validInput(fishermanID uuid.UUID) CreateDropInput {
	starts := time.Date(2026, 8, 30, 17, 0, 0, 0, time.UTC)
	return CreateDropInput{
		FishermanID: fishermanID,
		Species:     "Lieu jaune",
		Port:        "Le Guilvinec",
		PricePerKg:  decimal.NewFromFloat(12.50),
		StartsAt:    starts,
		EndsAt:      starts.Add(3 * time.Hour),
	}
}

func TestService_Create(t *testing.T) {
	var created *models.Drop
	repo := &fakeRepository{
		createFn: func(ctx context.Context, drop *models.Drop) error {
			created = drop
			return nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	got, err := svc.Create(context.Background(), validInput(uuid.New()))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created == nil || got != created {
		t.Fatal("expected drop to be created")
	}
	if created.Status != enums.DropStatusDraft {
		t.Fatalf("new drop status = %q, want draft", created.Status)
	}
	if created.Title != "Lieu jaune - Le Guilvinec" {
		t.Fatalf("default title = %q", created.Title)
	}
	if !created.PricePerKg.Equal(decimal.NewFromFloat(12.50)) {
		t.Fatalf("price = %s", created.PricePerKg)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	fishermanID := uuid.New()
	mutations := []struct {
		name   string
		mutate func(input *CreateDropInput)
	}{
		{"missing species", func(input *CreateDropInput) { input.Species = " " }},
		{"missing port", func(input *CreateDropInput) { input.Port = "" }},
		{"zero price", func(input *CreateDropInput) { input.PricePerKg = decimal.Zero }},
		{"negative price", func(input *CreateDropInput) { input.PricePerKg = decimal.NewFromInt(-2) }},
		{"window ends before start", func(input *CreateDropInput) { input.EndsAt = input.StartsAt.Add(-time.Hour) }},
	}
	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput(fishermanID)
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), input)
			appErr := errors.As(err)
			if appErr == nil || appErr.Code() != errors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_Publish(t *testing.T) {
	fishermanID := uuid.New()
	dropID := uuid.New()
	status := enums.DropStatusDraft
	published := false
	repo := &fakeRepository{
		findFn: func(ctx context.Context, fid, did uuid.UUID) (*models.Drop, error) {
			if fid != fishermanID || did != dropID {
				return nil, nil
			}
			return &models.Drop{ID: dropID, FishermanID: fishermanID, Status: status}, nil
		},
		publishFn: func(ctx context.Context, fid, did uuid.UUID, at time.Time) error {
			published = true
			return nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	drop, err := svc.Publish(context.Background(), fishermanID, dropID)
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if !published {
		t.Fatal("expected repository publish")
	}
	if drop.Status != enums.DropStatusPublished || drop.PublishedAt == nil {
		t.Fatalf("drop not marked published: %+v", drop)
	}

	// Publishing again is a no-op, not an error.
	status = enums.DropStatusPublished
	published = false
	if _, err := svc.Publish(context.Background(), fishermanID, dropID); err != nil {
		t.Fatalf("republish error: %v", err)
	}
	if published {
		t.Fatal("already published drop must not be re-written")
	}

	status = enums.DropStatusClosed
	_, err = svc.Publish(context.Background(), fishermanID, dropID)
	appErr := errors.As(err)
	if appErr == nil || appErr.Code() != errors.CodeConflict {
		t.Fatalf("closed drop must refuse publish, got %v", err)
	}
}
