package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/quaidirect/quaidirect-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type fakeRetentionRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeRetentionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestMessageRetentionJob(t *testing.T) {
	repo := &fakeRetentionRepo{deleted: 42}
	job, err := NewMessageRetentionJob(MessageRetentionJobParams{
		Logger:        testLogger(),
		Repository:    repo,
		RetentionDays: 365,
	})
	if err != nil {
		t.Fatalf("NewMessageRetentionJob error: %v", err)
	}

	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	job.(*messageRetentionJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := fixed.AddDate(0, 0, -365)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", repo.cutoff, want)
	}
}

func TestMessageRetentionJobPropagatesError(t *testing.T) {
	boom := errors.New("db down")
	job, err := NewMessageRetentionJob(MessageRetentionJobParams{
		Logger:     testLogger(),
		Repository: &fakeRetentionRepo{err: boom},
	})
	if err != nil {
		t.Fatalf("NewMessageRetentionJob error: %v", err)
	}
	if err := job.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected repo error, got %v", err)
	}
}

type fakeSweepStore struct {
	pattern string
	keys    []string
	deleted []string
}

func (f *fakeSweepStore) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	f.pattern = pattern
	return f.keys, nil
}

func (f *fakeSweepStore) Del(ctx context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

func (f *fakeSweepStore) QuotaLeasePattern(periodKey string) string {
	return "qd:lease:quota:*:" + periodKey
}

func TestLeaseSweepJob(t *testing.T) {
	store := &fakeSweepStore{keys: []string{
		"qd:lease:quota:abc:2026-07",
		"qd:lease:quota:def:2026-07",
	}}
	job, err := NewLeaseSweepJob(LeaseSweepJobParams{Logger: testLogger(), Store: store})
	if err != nil {
		t.Fatalf("NewLeaseSweepJob error: %v", err)
	}

	job.(*leaseSweepJob).now = func() time.Time {
		return time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if store.pattern != "qd:lease:quota:*:2026-07" {
		t.Fatalf("pattern = %q", store.pattern)
	}
	if len(store.deleted) != 2 {
		t.Fatalf("deleted %d keys, want 2", len(store.deleted))
	}
}

func TestLeaseSweepJobNoKeys(t *testing.T) {
	store := &fakeSweepStore{}
	job, err := NewLeaseSweepJob(LeaseSweepJobParams{Logger: testLogger(), Store: store})
	if err != nil {
		t.Fatalf("NewLeaseSweepJob error: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatal("nothing should be deleted")
	}
}
