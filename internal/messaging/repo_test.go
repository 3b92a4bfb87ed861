package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/enums"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMessagingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	usage := `
CREATE TABLE IF NOT EXISTS fisherman_sms_usage (
  id TEXT PRIMARY KEY,
  fisherman_id TEXT NOT NULL,
  period_key TEXT NOT NULL,
  monthly_allocation INTEGER NOT NULL,
  free_used INTEGER NOT NULL DEFAULT 0,
  paid_balance INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (fisherman_id, period_key)
);`
	messages := `
CREATE TABLE IF NOT EXISTS sms_messages (
  id TEXT PRIMARY KEY,
  fisherman_id TEXT NOT NULL,
  contact_id TEXT NOT NULL,
  channel TEXT NOT NULL,
  body TEXT NOT NULL,
  status TEXT NOT NULL,
  transport_id TEXT,
  error TEXT,
  sent_at DATETIME
);`
	require.NoError(t, db.Exec(usage).Error)
	require.NoError(t, db.Exec(messages).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM fisherman_sms_usage")
		db.Exec("DELETE FROM sms_messages")
	})
	return db
}

func TestLedgerRepository_UpsertKeepsOneRowPerPeriod(t *testing.T) {
	db := setupMessagingTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()
	fishermanID := uuid.New()

	require.NoError(t, repo.Upsert(ctx, &models.QuotaLedger{
		ID:                uuid.New(),
		FishermanID:       fishermanID,
		PeriodKey:         "2026-08",
		MonthlyAllocation: 100,
		FreeUsed:          12,
		PaidBalance:       0,
	}))
	require.NoError(t, repo.Upsert(ctx, &models.QuotaLedger{
		ID:                uuid.New(),
		FishermanID:       fishermanID,
		PeriodKey:         "2026-08",
		MonthlyAllocation: 100,
		FreeUsed:          20,
		PaidBalance:       5,
	}))

	var count int64
	require.NoError(t, db.Model(&models.QuotaLedger{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	ledger, err := repo.FindByPeriod(ctx, fishermanID, "2026-08")
	require.NoError(t, err)
	require.NotNil(t, ledger)
	assert.Equal(t, 20, ledger.FreeUsed)
	assert.Equal(t, 5, ledger.PaidBalance)
}

func TestLedgerRepository_FindByPeriodMissing(t *testing.T) {
	db := setupMessagingTestDB(t)
	repo := NewLedgerRepository(db)

	ledger, err := repo.FindByPeriod(context.Background(), uuid.New(), "2026-08")
	require.NoError(t, err)
	assert.Nil(t, ledger)
}

func TestLedgerRepository_AddCredits(t *testing.T) {
	db := setupMessagingTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()
	fishermanID := uuid.New()

	require.NoError(t, repo.AddCredits(ctx, fishermanID, "2026-08", 100, 50))

	ledger, err := repo.FindByPeriod(ctx, fishermanID, "2026-08")
	require.NoError(t, err)
	require.NotNil(t, ledger)
	assert.Equal(t, 50, ledger.PaidBalance)
	assert.Equal(t, 0, ledger.FreeUsed)

	require.NoError(t, repo.AddCredits(ctx, fishermanID, "2026-08", 100, 25))
	ledger, err = repo.FindByPeriod(ctx, fishermanID, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 75, ledger.PaidBalance)
}

func TestLogRepository_ListByFisherman(t *testing.T) {
	db := setupMessagingTestDB(t)
	repo := NewLogRepository(db)
	ctx := context.Background()
	fishermanID := uuid.New()
	otherID := uuid.New()

	base := time.Date(2026, 8, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.MessageLog{
			ID:          uuid.New(),
			FishermanID: fishermanID,
			ContactID:   uuid.New(),
			Channel:     enums.ChannelSMS,
			Body:        "Bonjour",
			Status:      enums.MessageStatusSent,
			SentAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.MessageLog{
		ID:          uuid.New(),
		FishermanID: otherID,
		ContactID:   uuid.New(),
		Channel:     enums.ChannelSMS,
		Body:        "Autre",
		Status:      enums.MessageStatusSent,
		SentAt:      base,
	}))

	entries, err := repo.ListByFisherman(ctx, fishermanID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].SentAt.After(entries[1].SentAt))
	for _, entry := range entries {
		assert.Equal(t, fishermanID, entry.FishermanID)
	}
}

func TestLogRepository_DeleteOlderThan(t *testing.T) {
	db := setupMessagingTestDB(t)
	repo := NewLogRepository(db)
	ctx := context.Background()
	fishermanID := uuid.New()

	old := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 14, 9, 0, 0, 0, time.UTC)
	for _, sentAt := range []time.Time{old, old.Add(time.Hour), recent} {
		require.NoError(t, repo.Create(ctx, &models.MessageLog{
			ID:          uuid.New(),
			FishermanID: fishermanID,
			ContactID:   uuid.New(),
			Channel:     enums.ChannelSMS,
			Body:        "Bonjour",
			Status:      enums.MessageStatusSent,
			SentAt:      sentAt,
		}))
	}

	deleted, err := repo.DeleteOlderThan(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	entries, err := repo.ListByFisherman(ctx, fishermanID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
