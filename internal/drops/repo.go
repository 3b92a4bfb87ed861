package drops

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/enums"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository manages persistence for drop announcements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, drop *models.Drop) error
	FindByID(ctx context.Context, fishermanID, dropID uuid.UUID) (*models.Drop, error)
	List(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) ([]models.Drop, error)
	LatestPublished(ctx context.Context, fishermanID uuid.UUID) (*models.Drop, error)
	Publish(ctx context.Context, fishermanID, dropID uuid.UUID, at time.Time) error
	Close(ctx context.Context, fishermanID, dropID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a drop repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, drop *models.Drop) error {
	return r.db.WithContext(ctx).Create(drop).Error
}

func (r *repository) FindByID(ctx context.Context, fishermanID, dropID uuid.UUID) (*models.Drop, error) {
	var drop models.Drop
	err := r.db.WithContext(ctx).
		Where("id = ? AND fisherman_id = ?", dropID, fishermanID).
		First(&drop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &drop, nil
}

func (r *repository) List(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) ([]models.Drop, error) {
	query := r.db.WithContext(ctx).
		Where("fisherman_id = ?", fishermanID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if cursor, err := pagination.ParseCursor(params.Cursor); err == nil && cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var drops []models.Drop
	if err := query.Find(&drops).Error; err != nil {
		return nil, err
	}
	return drops, nil
}

func (r *repository) LatestPublished(ctx context.Context, fishermanID uuid.UUID) (*models.Drop, error) {
	var drop models.Drop
	err := r.db.WithContext(ctx).
		Where("fisherman_id = ? AND status = ?", fishermanID, enums.DropStatusPublished).
		Order("published_at DESC").
		First(&drop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &drop, nil
}

func (r *repository) Publish(ctx context.Context, fishermanID, dropID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Drop{}).
		Where("id = ? AND fisherman_id = ?", dropID, fishermanID).
		Updates(map[string]any{
			"status":       enums.DropStatusPublished,
			"published_at": at,
			"updated_at":   at,
		}).Error
}

func (r *repository) Close(ctx context.Context, fishermanID, dropID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Drop{}).
		Where("id = ? AND fisherman_id = ?", dropID, fishermanID).
		Updates(map[string]any{
			"status":     enums.DropStatusClosed,
			"updated_at": time.Now().UTC(),
		}).Error
}
