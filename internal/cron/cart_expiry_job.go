package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const (
	defaultExpiryBatchSize  = 500
	defaultExpiryMaxBatches = 100
)

type expiredCartDeleter interface {
	DeleteExpired(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// CartExpiryJobParams configure the cart TTL janitor.
type CartExpiryJobParams struct {
	Logger     *logger.Logger
	Repository expiredCartDeleter
	Metrics    *metrics.CartMetrics
	BatchSize  int
	MaxBatches int
	Now        func() time.Time
}

// NewCartExpiryJob builds the job that deletes carts past their expires_at.
func NewCartExpiryJob(params CartExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatchSize
	}
	maxBatches := params.MaxBatches
	if maxBatches <= 0 {
		maxBatches = defaultExpiryMaxBatches
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &cartExpiryJob{
		logg:       params.Logger,
		repo:       params.Repository,
		metrics:    params.Metrics,
		batchSize:  batch,
		maxBatches: maxBatches,
		now:        now,
	}, nil
}

type cartExpiryJob struct {
	logg       *logger.Logger
	repo       expiredCartDeleter
	metrics    *metrics.CartMetrics
	batchSize  int
	maxBatches int
	now        func() time.Time
}

func (j *cartExpiryJob) Name() string { return "cart-expiry" }

func (j *cartExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	var (
		total int
		errs  error
	)
	for i := 0; i < j.maxBatches; i++ {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		deleted, err := j.repo.DeleteExpired(ctx, cutoff, j.batchSize)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete expired carts batch %d: %w", i+1, err))
			break
		}
		total += deleted
		j.metrics.AddExpired(deleted)
		if deleted < j.batchSize {
			break
		}
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"deleted": total,
		"cutoff":  cutoff.Format(time.RFC3339),
	})
	if total > 0 {
		j.logg.Info(ctx, "expired carts deleted")
	} else {
		j.logg.Debug(ctx, "no expired carts")
	}
	return errs
}
