package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	defaultStaleAfter = 30 * 24 * time.Hour
	defaultStaleBatch = 200
	// maxStaleBatches bounds one run so a large backlog drains over several cycles.
	maxStaleBatches = 50
)

type staleCartRepo interface {
	DeleteStale(ctx context.Context, before time.Time, limit int) ([]models.Cart, error)
}

type cartCacheInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type StaleCartJobParams struct {
	Logger     *logger.Logger
	Repository staleCartRepo
	Cache      cartCacheInvalidator
	StaleAfter time.Duration
	BatchSize  int
}

func NewStaleCartJob(params StaleCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultStaleBatch
	}
	return &staleCartJob{
		logg:       params.Logger,
		repo:       params.Repository,
		cache:      params.Cache,
		staleAfter: staleAfter,
		batch:      batch,
		now:        time.Now,
	}, nil
}

type staleCartJob struct {
	logg       *logger.Logger
	repo       staleCartRepo
	cache      cartCacheInvalidator
	staleAfter time.Duration
	batch      int
	now        func() time.Time
}

func (j *staleCartJob) Name() string { return "stale-cart-cleanup" }

// Run deletes carts untouched for staleAfter in batches and drops their
// cached reads. Cache failures are collected and reported after the sweep.
func (j *staleCartJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)
	var (
		deleted  int
		cacheErr error
	)
	for i := 0; i < maxStaleBatches; i++ {
		carts, err := j.repo.DeleteStale(ctx, cutoff, j.batch)
		if err != nil {
			return fmt.Errorf("stale cart cleanup: %w", err)
		}
		deleted += len(carts)
		if j.cache != nil {
			for _, c := range carts {
				cacheErr = multierr.Append(cacheErr, j.cache.Invalidate(ctx, c.UserID))
			}
		}
		if len(carts) < j.batch {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"carts_deleted": deleted,
	})
	j.logg.Info(logCtx, "stale cart cleanup complete")
	if cacheErr != nil {
		return fmt.Errorf("invalidate cart cache: %w", cacheErr)
	}
	return nil
}
