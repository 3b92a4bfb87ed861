package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
)

// ConsumptionSplit describes how a batch's successful sends divide between the
// free allocation and the paid balance, and the resulting ledger counters.
type ConsumptionSplit struct {
	FreeConsumed   int
	PaidConsumed   int
	NewFreeUsed    int
	NewPaidBalance int
}

// SplitConsumption charges successCount sends against the snapshot: free
// allocation first, paid credits for the remainder. Only successful sends are
// charged; failures cost nothing. The paid balance is clamped at zero so a
// transport that over-delivers can never drive the ledger negative.
func SplitConsumption(snapshot QuotaSnapshot, successCount int) ConsumptionSplit {
	if successCount < 0 {
		successCount = 0
	}

	freeConsumed := successCount
	if freeConsumed > snapshot.FreeRemaining {
		freeConsumed = snapshot.FreeRemaining
	}
	paidConsumed := successCount - freeConsumed

	newPaidBalance := snapshot.PaidBalance - paidConsumed
	if newPaidBalance < 0 {
		newPaidBalance = 0
	}

	return ConsumptionSplit{
		FreeConsumed:   freeConsumed,
		PaidConsumed:   paidConsumed,
		NewFreeUsed:    snapshot.FreeUsed + freeConsumed,
		NewPaidBalance: newPaidBalance,
	}
}

// LedgerUpdater persists post-dispatch consumption back to the usage table.
type LedgerUpdater struct {
	ledgers LedgerRepository
}

// NewLedgerUpdater wires a ledger updater.
func NewLedgerUpdater(ledgers LedgerRepository) *LedgerUpdater {
	return &LedgerUpdater{ledgers: ledgers}
}

// Apply upserts the ledger row with counters from the split. It runs after the
// sends completed, so a write failure here must not undo deliveries; callers
// log the error and surface the batch result regardless.
func (u *LedgerUpdater) Apply(ctx context.Context, fishermanID uuid.UUID, periodKey string, snapshot QuotaSnapshot, split ConsumptionSplit) error {
	return u.ledgers.Upsert(ctx, &models.QuotaLedger{
		FishermanID:       fishermanID,
		PeriodKey:         periodKey,
		MonthlyAllocation: snapshot.MonthlyAllocation,
		FreeUsed:          split.NewFreeUsed,
		PaidBalance:       split.NewPaidBalance,
	})
}
