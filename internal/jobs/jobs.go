package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultRetentionSpec runs the pruning job once a day at 03:00.
	DefaultRetentionSpec = "0 3 * * *"

	pruneTimeout = 30 * time.Second
)

type ReportStore interface {
	DeleteReportsBefore(ctx context.Context, createdAt int64) (int64, error)
}

type JobConfig struct {
	DB            ReportStore
	RetentionDays int
	Spec          string

	now func() time.Time
}

func NewRetentionJob(DB ReportStore, retentionDays int) (*JobConfig, error) {
	if DB == nil {
		return nil, errors.New("jobs: report store required")
	}
	if retentionDays <= 0 {
		return nil, errors.New("jobs: retention_days must be > 0")
	}

	return &JobConfig{
		DB:            DB,
		RetentionDays: retentionDays,
		Spec:          DefaultRetentionSpec,
		now:           time.Now,
	}, nil
}

// Prune removes reports older than the retention period.
func (config *JobConfig) Prune(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, pruneTimeout)
	defer cancel()

	cutoff := config.now().AddDate(0, 0, -config.RetentionDays)
	deleted, err := config.DB.DeleteReportsBefore(ctx, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete reports: %w", err)
	}

	slog.Info("pruned report history", "deleted", deleted, "before", cutoff)

	return deleted, nil
}

// Run prunes once immediately and then on the cron schedule until ctx is
// cancelled. A failed prune is logged and retried on the next tick.
func (config *JobConfig) Run(ctx context.Context) error {
	slog.Debug(">>RetentionJob.Run")
	defer slog.Debug("<<RetentionJob.Run")

	if _, err := config.Prune(ctx); err != nil {
		slog.Error("failed to prune report history", "error", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(config.Spec, func() {
		if _, err := config.Prune(ctx); err != nil {
			slog.Error("failed to prune report history", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule retention job: %w", err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}
