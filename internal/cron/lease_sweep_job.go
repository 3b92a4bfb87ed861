package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/quaidirect/quaidirect-backend/pkg/logger"
)

// LeaseSweepJobParams configure the dispatch lease sweep job.
type LeaseSweepJobParams struct {
	Logger *logger.Logger
	Store  leaseSweepStore
}

type leaseSweepStore interface {
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	QuotaLeasePattern(periodKey string) string
}

// NewLeaseSweepJob removes dispatch leases left over from previous periods.
// Leases carry a TTL, so this only matters when Redis was restored from a
// snapshot or a TTL was lost; the sweep keys on the period so it can never
// touch the current month's leases.
func NewLeaseSweepJob(params LeaseSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &leaseSweepJob{
		logg:  params.Logger,
		store: params.Store,
		now:   time.Now,
	}, nil
}

type leaseSweepJob struct {
	logg  *logger.Logger
	store leaseSweepStore
	now   func() time.Time
}

func (j *leaseSweepJob) Name() string { return "dispatch-lease-sweep" }

func (j *leaseSweepJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	// Anchor on the first of the month so late-month dates normalize correctly.
	previous := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -1, 0).Format("2006-01")
	pattern := j.store.QuotaLeasePattern(previous)

	keys, err := j.store.ScanKeys(ctx, pattern)
	if err != nil {
		return fmt.Errorf("scan stale leases: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := j.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete stale leases: %w", err)
	}
	j.logg.Warn(j.logg.WithField(ctx, "deleted", len(keys)), "removed dispatch leases from a previous period")
	return nil
}
