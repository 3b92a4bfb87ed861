package contacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/errors"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
)

// Service defines contact-book operations scoped to one fisherman.
type Service interface {
	Create(ctx context.Context, input CreateContactInput) (*models.Contact, error)
	Update(ctx context.Context, input UpdateContactInput) (*models.Contact, error)
	Delete(ctx context.Context, fishermanID, contactID uuid.UUID) error
	Get(ctx context.Context, fishermanID, contactID uuid.UUID) (*models.Contact, error)
	List(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) (*ContactPage, error)
	ListByIDs(ctx context.Context, fishermanID uuid.UUID, ids []uuid.UUID) ([]models.Contact, error)
	ListAll(ctx context.Context, fishermanID uuid.UUID) ([]models.Contact, error)
	TouchLastContacted(ctx context.Context, contactID uuid.UUID, at time.Time) error
}

// CreateContactInput captures a new contact entry.
type CreateContactInput struct {
	FishermanID uuid.UUID
	FirstName   string
	LastName    string
	Phone       string
	Email       string
}

// UpdateContactInput replaces the mutable fields of an existing contact.
type UpdateContactInput struct {
	FishermanID uuid.UUID
	ContactID   uuid.UUID
	FirstName   string
	LastName    string
	Phone       string
	Email       string
}

// ContactPage is one page of a fisherman's contact book.
type ContactPage struct {
	Contacts   []models.Contact `json:"contacts"`
	NextCursor *string          `json:"next_cursor"`
}

type service struct {
	repo Repository
}

// NewService wires a contact service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contact repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateContactInput) (*models.Contact, error) {
	if input.FishermanID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id is required")
	}
	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		return nil, errors.New(errors.CodeValidation, "first name is required")
	}
	phone := strings.TrimSpace(input.Phone)
	email := strings.TrimSpace(input.Email)
	if phone == "" && email == "" {
		return nil, errors.New(errors.CodeValidation, "a phone number or an email address is required")
	}

	contact := &models.Contact{
		FishermanID: input.FishermanID,
		FirstName:   firstName,
		LastName:    strings.TrimSpace(input.LastName),
		Phone:       optional(phone),
		Email:       optional(email),
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "create contact")
	}
	return contact, nil
}

func (s *service) Update(ctx context.Context, input UpdateContactInput) (*models.Contact, error) {
	existing, err := s.Get(ctx, input.FishermanID, input.ContactID)
	if err != nil {
		return nil, err
	}

	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		return nil, errors.New(errors.CodeValidation, "first name is required")
	}
	phone := strings.TrimSpace(input.Phone)
	email := strings.TrimSpace(input.Email)
	if phone == "" && email == "" {
		return nil, errors.New(errors.CodeValidation, "a phone number or an email address is required")
	}

	existing.FirstName = firstName
	existing.LastName = strings.TrimSpace(input.LastName)
	existing.Phone = optional(phone)
	existing.Email = optional(email)
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "update contact")
	}
	return existing, nil
}

func (s *service) Delete(ctx context.Context, fishermanID, contactID uuid.UUID) error {
	if _, err := s.Get(ctx, fishermanID, contactID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, fishermanID, contactID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "delete contact")
	}
	return nil
}

func (s *service) Get(ctx context.Context, fishermanID, contactID uuid.UUID) (*models.Contact, error) {
	if fishermanID == uuid.Nil || contactID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id and contact id are required")
	}
	contact, err := s.repo.FindByID(ctx, fishermanID, contactID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load contact")
	}
	if contact == nil {
		return nil, errors.New(errors.CodeNotFound, "contact not found")
	}
	return contact, nil
}

func (s *service) List(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) (*ContactPage, error) {
	if fishermanID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id is required")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	contacts, err := s.repo.List(ctx, fishermanID, params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list contacts")
	}

	page := &ContactPage{Contacts: contacts}
	if len(contacts) > limit {
		page.Contacts = contacts[:limit]
		last := page.Contacts[limit-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &cursor
	}
	return page, nil
}

func (s *service) ListByIDs(ctx context.Context, fishermanID uuid.UUID, ids []uuid.UUID) ([]models.Contact, error) {
	return s.repo.ListByIDs(ctx, fishermanID, ids)
}

func (s *service) ListAll(ctx context.Context, fishermanID uuid.UUID) ([]models.Contact, error) {
	return s.repo.ListAll(ctx, fishermanID)
}

func (s *service) TouchLastContacted(ctx context.Context, contactID uuid.UUID, at time.Time) error {
	return s.repo.TouchLastContacted(ctx, contactID, at)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
