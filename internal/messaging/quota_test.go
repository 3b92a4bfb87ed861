package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
)

func TestPeriodKey(t *testing.T) {
	paris := time.FixedZone("CEST", 2*60*60)
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"mid month", time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC), "2026-08"},
		{"local month boundary folds to utc", time.Date(2026, 9, 1, 0, 30, 0, 0, paris), "2026-08"},
		{"first utc second of month", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), "2026-09"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PeriodKey(tc.at); got != tc.want {
				t.Fatalf("PeriodKey(%v) = %q, want %q", tc.at, got, tc.want)
			}
		})
	}
}

func TestEvaluator_EvaluateMissingRow(t *testing.T) {
	evaluator := NewEvaluator(&fakeLedgerRepository{}, &fakePlanSource{allocation: 100})

	snapshot, err := evaluator.EvaluateAt(context.Background(), uuid.New(), "2026-08")
	if err != nil {
		t.Fatalf("EvaluateAt error: %v", err)
	}
	want := QuotaSnapshot{PeriodKey: "2026-08", MonthlyAllocation: 100, FreeRemaining: 100, TotalAvailable: 100}
	if snapshot != want {
		t.Fatalf("fresh month snapshot = %+v, want %+v", snapshot, want)
	}
}

func TestEvaluator_EvaluateExistingRow(t *testing.T) {
	ledgers := &fakeLedgerRepository{
		findFn: func(ctx context.Context, fishermanID uuid.UUID, periodKey string) (*models.QuotaLedger, error) {
			return &models.QuotaLedger{
				FishermanID:       fishermanID,
				PeriodKey:         periodKey,
				MonthlyAllocation: 100,
				FreeUsed:          95,
				PaidBalance:       10,
			}, nil
		},
	}
	evaluator := NewEvaluator(ledgers, &fakePlanSource{allocation: 100})

	snapshot, err := evaluator.EvaluateAt(context.Background(), uuid.New(), "2026-08")
	if err != nil {
		t.Fatalf("EvaluateAt error: %v", err)
	}
	if snapshot.FreeRemaining != 5 || snapshot.PaidBalance != 10 || snapshot.TotalAvailable != 15 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if !snapshot.Feasible(15) {
		t.Fatal("batch equal to total available must be feasible")
	}
	if snapshot.Feasible(16) {
		t.Fatal("batch above total available must be refused")
	}
}

func TestEvaluator_FreeRemainingNeverNegative(t *testing.T) {
	ledgers := &fakeLedgerRepository{
		findFn: func(ctx context.Context, fishermanID uuid.UUID, periodKey string) (*models.QuotaLedger, error) {
			// A plan downgrade can leave free_used above the new allocation.
			return &models.QuotaLedger{
				FishermanID:       fishermanID,
				PeriodKey:         periodKey,
				MonthlyAllocation: 10,
				FreeUsed:          40,
				PaidBalance:       2,
			}, nil
		},
	}
	evaluator := NewEvaluator(ledgers, &fakePlanSource{allocation: 10})

	snapshot, err := evaluator.EvaluateAt(context.Background(), uuid.New(), "2026-08")
	if err != nil {
		t.Fatalf("EvaluateAt error: %v", err)
	}
	if snapshot.FreeRemaining != 0 {
		t.Fatalf("free remaining = %d, want 0", snapshot.FreeRemaining)
	}
	if snapshot.TotalAvailable != 2 {
		t.Fatalf("total available = %d, want 2", snapshot.TotalAvailable)
	}
}

func TestEvaluator_PlanLookupError(t *testing.T) {
	boom := errors.New("fisherman not found")
	evaluator := NewEvaluator(&fakeLedgerRepository{}, &fakePlanSource{err: boom})

	_, err := evaluator.EvaluateAt(context.Background(), uuid.New(), "2026-08")
	if !errors.Is(err, boom) {
		t.Fatalf("expected plan lookup error, got %v", err)
	}
}
