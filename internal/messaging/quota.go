package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
)

// QuotaSnapshot is the derived view of one fisherman's quota for one period.
// All fields are computed from the ledger row plus the plan allocation; a
// missing row reads as a fresh month with nothing used.
type QuotaSnapshot struct {
	PeriodKey         string `json:"period_key"`
	MonthlyAllocation int    `json:"monthly_allocation"`
	FreeUsed          int    `json:"free_used"`
	FreeRemaining     int    `json:"free_remaining"`
	PaidBalance       int    `json:"paid_balance"`
	TotalAvailable    int    `json:"total_available"`
}

// Feasible reports whether n sends fit within the snapshot. The check is
// all-or-nothing: a batch larger than the total available is refused outright
// rather than partially sent.
func (s QuotaSnapshot) Feasible(n int) bool {
	return n <= s.TotalAvailable
}

// planSource resolves the monthly free allocation for a fisherman's current plan.
type planSource interface {
	MonthlyAllocation(ctx context.Context, fishermanID uuid.UUID) (int, error)
}

// Evaluator computes quota snapshots from the ledger and the fisherman's plan.
type Evaluator struct {
	ledgers LedgerRepository
	plans   planSource
	now     func() time.Time
}

// NewEvaluator wires a quota evaluator.
func NewEvaluator(ledgers LedgerRepository, plans planSource) *Evaluator {
	return &Evaluator{ledgers: ledgers, plans: plans, now: time.Now}
}

// Evaluate builds the quota snapshot for the current period. The evaluation is
// read-only; nothing is written until a dispatch completes.
func (e *Evaluator) Evaluate(ctx context.Context, fishermanID uuid.UUID) (QuotaSnapshot, error) {
	return e.EvaluateAt(ctx, fishermanID, PeriodKey(e.now()))
}

// EvaluateAt builds the quota snapshot for an explicit period key.
func (e *Evaluator) EvaluateAt(ctx context.Context, fishermanID uuid.UUID, periodKey string) (QuotaSnapshot, error) {
	allocation, err := e.plans.MonthlyAllocation(ctx, fishermanID)
	if err != nil {
		return QuotaSnapshot{}, err
	}

	ledger, err := e.ledgers.FindByPeriod(ctx, fishermanID, periodKey)
	if err != nil {
		return QuotaSnapshot{}, err
	}
	if ledger == nil {
		ledger = &models.QuotaLedger{
			FishermanID:       fishermanID,
			PeriodKey:         periodKey,
			MonthlyAllocation: allocation,
		}
	}

	return Snapshot(*ledger), nil
}

// Snapshot derives the read model from a ledger row.
func Snapshot(ledger models.QuotaLedger) QuotaSnapshot {
	freeRemaining := ledger.FreeRemaining()
	return QuotaSnapshot{
		PeriodKey:         ledger.PeriodKey,
		MonthlyAllocation: ledger.MonthlyAllocation,
		FreeUsed:          ledger.FreeUsed,
		FreeRemaining:     freeRemaining,
		PaidBalance:       ledger.PaidBalance,
		TotalAvailable:    freeRemaining + ledger.PaidBalance,
	}
}
