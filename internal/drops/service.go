package drops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/enums"
	"github.com/quaidirect/quaidirect-backend/pkg/errors"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// Service defines drop announcement operations scoped to one fisherman.
type Service interface {
	Create(ctx context.Context, input CreateDropInput) (*models.Drop, error)
	Get(ctx context.Context, fishermanID, dropID uuid.UUID) (*models.Drop, error)
	List(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) (*DropPage, error)
	Publish(ctx context.Context, fishermanID, dropID uuid.UUID) (*models.Drop, error)
	Close(ctx context.Context, fishermanID, dropID uuid.UUID) error
	LatestPublished(ctx context.Context, fishermanID uuid.UUID) (*models.Drop, error)
}

// CreateDropInput captures a new catch announcement.
type CreateDropInput struct {
	FishermanID uuid.UUID
	Title       string
	Species     string
	Port        string
	PricePerKg  decimal.Decimal
	StartsAt    time.Time
	EndsAt      time.Time
}

// DropPage is one page of a fisherman's drops.
type DropPage struct {
	Drops      []models.Drop `json:"drops"`
	NextCursor *string       `json:"next_cursor"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a drop service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("drop repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateDropInput) (*models.Drop, error) {
	if input.FishermanID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id is required")
	}
	if strings.TrimSpace(input.Species) == "" {
		return nil, errors.New(errors.CodeValidation, "species is required")
	}
	if strings.TrimSpace(input.Port) == "" {
		return nil, errors.New(errors.CodeValidation, "port is required")
	}
	if input.PricePerKg.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New(errors.CodeValidation, "price per kg must be positive")
	}
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() || !input.EndsAt.After(input.StartsAt) {
		return nil, errors.New(errors.CodeValidation, "sale window must end after it starts")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = strings.TrimSpace(input.Species) + " - " + strings.TrimSpace(input.Port)
	}

	drop := &models.Drop{
		FishermanID: input.FishermanID,
		Title:       title,
		Species:     strings.TrimSpace(input.Species),
		Port:        strings.TrimSpace(input.Port),
		PricePerKg:  input.PricePerKg,
		Status:      enums.DropStatusDraft,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
	}
	if err := s.repo.Create(ctx, drop); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "create drop")
	}
	return drop, nil
}

func (s *service) Get(ctx context.Context, fishermanID, dropID uuid.UUID) (*models.Drop, error) {
	if fishermanID == uuid.Nil || dropID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id and drop id are required")
	}
	drop, err := s.repo.FindByID(ctx, fishermanID, dropID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load drop")
	}
	if drop == nil {
		return nil, errors.New(errors.CodeNotFound, "drop not found")
	}
	return drop, nil
}

func (s *service) List(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) (*DropPage, error) {
	if fishermanID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id is required")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	drops, err := s.repo.List(ctx, fishermanID, params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list drops")
	}

	page := &DropPage{Drops: drops}
	if len(drops) > limit {
		page.Drops = drops[:limit]
		last := page.Drops[limit-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &cursor
	}
	return page, nil
}

// Publish moves a draft drop live. Published drops are what new_drop message
// batches announce to the contact book.
func (s *service) Publish(ctx context.Context, fishermanID, dropID uuid.UUID) (*models.Drop, error) {
	drop, err := s.Get(ctx, fishermanID, dropID)
	if err != nil {
		return nil, err
	}
	if drop.Status == enums.DropStatusClosed {
		return nil, errors.New(errors.CodeConflict, "a closed drop cannot be published")
	}
	if drop.Status == enums.DropStatusPublished {
		return drop, nil
	}

	now := s.now().UTC()
	if err := s.repo.Publish(ctx, fishermanID, dropID, now); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "publish drop")
	}
	drop.Status = enums.DropStatusPublished
	drop.PublishedAt = &now
	return drop, nil
}

func (s *service) Close(ctx context.Context, fishermanID, dropID uuid.UUID) error {
	drop, err := s.Get(ctx, fishermanID, dropID)
	if err != nil {
		return err
	}
	if drop.Status == enums.DropStatusClosed {
		return nil
	}
	if err := s.repo.Close(ctx, fishermanID, dropID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "close drop")
	}
	return nil
}

func (s *service) LatestPublished(ctx context.Context, fishermanID uuid.UUID) (*models.Drop, error) {
	return s.repo.LatestPublished(ctx, fishermanID)
}
