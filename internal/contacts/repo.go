package contacts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository manages persistence for a fisherman's contact book.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, contact *models.Contact) error
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, fishermanID, contactID uuid.UUID) error
	FindByID(ctx context.Context, fishermanID, contactID uuid.UUID) (*models.Contact, error)
	List(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) ([]models.Contact, error)
	ListByIDs(ctx context.Context, fishermanID uuid.UUID, ids []uuid.UUID) ([]models.Contact, error)
	ListAll(ctx context.Context, fishermanID uuid.UUID) ([]models.Contact, error)
	TouchLastContacted(ctx context.Context, contactID uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a contact repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *repository) Update(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("id = ? AND fisherman_id = ?", contact.ID, contact.FishermanID).
		Updates(map[string]any{
			"first_name": contact.FirstName,
			"last_name":  contact.LastName,
			"phone":      contact.Phone,
			"email":      contact.Email,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) Delete(ctx context.Context, fishermanID, contactID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND fisherman_id = ?", contactID, fishermanID).
		Delete(&models.Contact{}).Error
}

func (r *repository) FindByID(ctx context.Context, fishermanID, contactID uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.WithContext(ctx).
		Where("id = ? AND fisherman_id = ?", contactID, fishermanID).
		First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (r *repository) List(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) ([]models.Contact, error) {
	query := r.db.WithContext(ctx).
		Where("fisherman_id = ?", fishermanID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if cursor, err := pagination.ParseCursor(params.Cursor); err == nil && cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var contacts []models.Contact
	if err := query.Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// ListByIDs returns the requested contacts that belong to the fisherman, in
// the order they were asked for. Unknown or foreign ids are silently dropped.
func (r *repository) ListByIDs(ctx context.Context, fishermanID uuid.UUID, ids []uuid.UUID) ([]models.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var contacts []models.Contact
	err := r.db.WithContext(ctx).
		Where("fisherman_id = ? AND id IN ?", fishermanID, ids).
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Contact, len(contacts))
	for _, contact := range contacts {
		byID[contact.ID] = contact
	}
	ordered := make([]models.Contact, 0, len(contacts))
	for _, id := range ids {
		if contact, ok := byID[id]; ok {
			ordered = append(ordered, contact)
		}
	}
	return ordered, nil
}

// ListAll returns the fisherman's whole contact book, oldest first.
func (r *repository) ListAll(ctx context.Context, fishermanID uuid.UUID) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.WithContext(ctx).
		Where("fisherman_id = ?", fishermanID).
		Order("created_at ASC").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *repository) TouchLastContacted(ctx context.Context, contactID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("id = ?", contactID).
		Update("last_contacted_at", at).Error
}
