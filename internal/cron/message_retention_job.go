package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/quaidirect/quaidirect-backend/pkg/logger"
)

const defaultRetentionDays = 365

// MessageRetentionJobParams configure the message log retention job.
type MessageRetentionJobParams struct {
	Logger        *logger.Logger
	Repository    messageRetentionRepo
	RetentionDays int
}

type messageRetentionRepo interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewMessageRetentionJob deletes message log rows older than the retention
// window. The log is an audit trail, not an archive; a year is plenty.
func NewMessageRetentionJob(params MessageRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("message log repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultRetentionDays
	}
	return &messageRetentionJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type messageRetentionJob struct {
	logg      *logger.Logger
	repo      messageRetentionRepo
	retention int
	now       func() time.Time
}

func (j *messageRetentionJob) Name() string { return "message-log-retention" }

func (j *messageRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete message logs before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.logg.Info(j.logg.WithField(ctx, "deleted", deleted), "message log retention pass complete")
	return nil
}
