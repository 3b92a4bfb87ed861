package fishermen

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for fisherman accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, fisherman *models.Fisherman) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Fisherman, error)
	FindByEmail(ctx context.Context, email string) (*models.Fisherman, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, plan enums.Plan) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a fisherman repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, fisherman *models.Fisherman) error {
	return r.db.WithContext(ctx).Create(fisherman).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Fisherman, error) {
	var fisherman models.Fisherman
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&fisherman).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fisherman, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Fisherman, error) {
	var fisherman models.Fisherman
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&fisherman).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fisherman, nil
}

func (r *repository) UpdatePlan(ctx context.Context, id uuid.UUID, plan enums.Plan) error {
	return r.db.WithContext(ctx).
		Model(&models.Fisherman{}).
		Where("id = ?", id).
		Update("plan", plan).Error
}
