package stripewebhook

import (
	"context"

	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository records credit purchases settled through Stripe.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.CreditPurchase) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a credit purchase repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.CreditPurchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}
