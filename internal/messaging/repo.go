package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository manages persistence for the per-fisherman monthly usage rows.
type LedgerRepository interface {
	WithTx(tx *gorm.DB) LedgerRepository
	FindByPeriod(ctx context.Context, fishermanID uuid.UUID, periodKey string) (*models.QuotaLedger, error)
	Upsert(ctx context.Context, ledger *models.QuotaLedger) error
	AddCredits(ctx context.Context, fishermanID uuid.UUID, periodKey string, allocation, credits int) error
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository returns a ledger repository bound to the provided database.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	if tx == nil {
		return r
	}
	return &ledgerRepository{db: tx}
}

func (r *ledgerRepository) FindByPeriod(ctx context.Context, fishermanID uuid.UUID, periodKey string) (*models.QuotaLedger, error) {
	var ledger models.QuotaLedger
	err := r.db.WithContext(ctx).
		Where("fisherman_id = ? AND period_key = ?", fishermanID, periodKey).
		First(&ledger).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ledger, nil
}

// Upsert writes the ledger row keyed by (fisherman_id, period_key). An existing
// row has its counters replaced wholesale; the caller computed them from the
// same row it read under the dispatch lease.
func (r *ledgerRepository) Upsert(ctx context.Context, ledger *models.QuotaLedger) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "fisherman_id"}, {Name: "period_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"monthly_allocation", "free_used", "paid_balance", "updated_at",
			}),
		}).
		Create(ledger).Error
}

// AddCredits increments paid_balance atomically, creating the period row on
// first purchase of the month.
func (r *ledgerRepository) AddCredits(ctx context.Context, fishermanID uuid.UUID, periodKey string, allocation, credits int) error {
	ledger := &models.QuotaLedger{
		FishermanID:       fishermanID,
		PeriodKey:         periodKey,
		MonthlyAllocation: allocation,
		FreeUsed:          0,
		PaidBalance:       credits,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "fisherman_id"}, {Name: "period_key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"paid_balance": gorm.Expr("fisherman_sms_usage.paid_balance + ?", credits),
				"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(ledger).Error
}

// LogRepository manages persistence for dispatched message records.
type LogRepository interface {
	WithTx(tx *gorm.DB) LogRepository
	Create(ctx context.Context, entry *models.MessageLog) error
	ListByFisherman(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) ([]models.MessageLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type logRepository struct {
	db *gorm.DB
}

// NewLogRepository returns a message log repository bound to the provided database.
func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) WithTx(tx *gorm.DB) LogRepository {
	if tx == nil {
		return r
	}
	return &logRepository{db: tx}
}

func (r *logRepository) Create(ctx context.Context, entry *models.MessageLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *logRepository) ListByFisherman(ctx context.Context, fishermanID uuid.UUID, params pagination.Params) ([]models.MessageLog, error) {
	query := r.db.WithContext(ctx).
		Where("fisherman_id = ?", fishermanID).
		Order("sent_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if cursor, err := pagination.ParseCursor(params.Cursor); err == nil && cursor != nil {
		query = query.Where("(sent_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.MessageLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *logRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("sent_at < ?", cutoff).
		Delete(&models.MessageLog{})
	return result.RowsAffected, result.Error
}
