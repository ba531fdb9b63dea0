package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/mesaviva/mesaviva-backend/internal/orders"
	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

// draftReader lists abandoned checkout drafts.
type draftReader interface {
	ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

// DraftExpiryJobParams configure the abandoned draft sweeper.
type DraftExpiryJobParams struct {
	Logger   *logger.Logger
	Drafts   draftReader
	Orders   orders.Service
	DraftTTL time.Duration
}

// NewDraftExpiryJob builds the job that cancels drafts whose checkout never
// completed. A draft survives a failed charge so the customer can retry, but
// not forever.
func NewDraftExpiryJob(params DraftExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Drafts == nil {
		return nil, fmt.Errorf("draft reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	ttl := params.DraftTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &draftExpiryJob{
		logg:   params.Logger,
		drafts: params.Drafts,
		orders: params.Orders,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type draftExpiryJob struct {
	logg   *logger.Logger
	drafts draftReader
	orders orders.Service
	ttl    time.Duration
	now    func() time.Time
}

func (j *draftExpiryJob) Name() string { return "draft-expiry" }

func (j *draftExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.drafts.ListStaleDrafts(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale drafts: %w", err)
	}

	note := "checkout abandoned"
	var errs []error
	cancelled := 0
	for _, draft := range stale {
		if _, err := j.orders.Cancel(ctx, draft.ID, "system", &note); err != nil {
			errs = append(errs, fmt.Errorf("cancel draft %s: %w", draft.ID, err))
			continue
		}
		cancelled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": cancelled, "cutoff": cutoff})
	j.logg.Info(logCtx, "draft expiry sweep complete")
	return multierr.Combine(errs...)
}
