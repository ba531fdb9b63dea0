package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

// staleSweeper flips quiet trackers to not-live.
type staleSweeper interface {
	SweepStale(now time.Time) []uuid.UUID
}

// StaleTrackingJobParams configure the tracking staleness sweep.
type StaleTrackingJobParams struct {
	Logger  *logger.Logger
	Tracker staleSweeper
}

// NewStaleTrackingJob builds the job that marks quiet delivery feeds as not
// live. Reads already flip staleness lazily; the sweep exists so subscribers
// hear about an outage without polling.
func NewStaleTrackingJob(params StaleTrackingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tracker == nil {
		return nil, fmt.Errorf("tracking manager required")
	}
	return &staleTrackingJob{
		logg:    params.Logger,
		tracker: params.Tracker,
		now:     time.Now,
	}, nil
}

type staleTrackingJob struct {
	logg    *logger.Logger
	tracker staleSweeper
	now     func() time.Time
}

func (j *staleTrackingJob) Name() string { return "stale-tracking" }

func (j *staleTrackingJob) Run(ctx context.Context) error {
	flipped := j.tracker.SweepStale(j.now().UTC())
	if len(flipped) == 0 {
		return nil
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": len(flipped)})
	j.logg.Info(logCtx, "marked quiet delivery feeds as not live")
	return nil
}
