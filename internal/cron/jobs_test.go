package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/internal/orders"
	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

type fakeDraftReader struct {
	cutoff time.Time
	drafts []models.Order
	err    error
}

func (f *fakeDraftReader) ListStaleDrafts(_ context.Context, cutoff time.Time) ([]models.Order, error) {
	f.cutoff = cutoff
	return f.drafts, f.err
}

type fakeOrderService struct {
	orders.Service

	cancelled []uuid.UUID
	cancelErr map[uuid.UUID]error
}

func (f *fakeOrderService) Cancel(_ context.Context, id uuid.UUID, actor string, _ *string) (*orders.OrderDTO, error) {
	if actor != "system" {
		return nil, errors.New("cron must cancel as system")
	}
	if err := f.cancelErr[id]; err != nil {
		return nil, err
	}
	f.cancelled = append(f.cancelled, id)
	return &orders.OrderDTO{ID: id, Status: enums.OrderStatusCancelled}, nil
}

func cronTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

func TestDraftExpiryJobCancelsStaleDrafts(t *testing.T) {
	now := time.Date(2025, 8, 13, 9, 0, 0, 0, time.UTC)
	stale := models.Order{ID: uuid.New(), Status: enums.OrderStatusDraft}
	reader := &fakeDraftReader{drafts: []models.Order{stale}}
	svc := &fakeOrderService{}

	job, err := NewDraftExpiryJob(DraftExpiryJobParams{
		Logger:   cronTestLogger(),
		Drafts:   reader,
		Orders:   svc,
		DraftTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	job.(*draftExpiryJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reader.cutoff.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("unexpected cutoff: %s", reader.cutoff)
	}
	if len(svc.cancelled) != 1 || svc.cancelled[0] != stale.ID {
		t.Fatalf("expected stale draft cancelled, got %v", svc.cancelled)
	}
}

func TestDraftExpiryJobContinuesPastFailures(t *testing.T) {
	broken := models.Order{ID: uuid.New(), Status: enums.OrderStatusDraft}
	healthy := models.Order{ID: uuid.New(), Status: enums.OrderStatusDraft}
	reader := &fakeDraftReader{drafts: []models.Order{broken, healthy}}
	svc := &fakeOrderService{cancelErr: map[uuid.UUID]error{broken.ID: errors.New("locked")}}

	job, err := NewDraftExpiryJob(DraftExpiryJobParams{
		Logger: cronTestLogger(),
		Drafts: reader,
		Orders: svc,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if runErr := job.Run(context.Background()); runErr == nil {
		t.Fatal("expected combined error when a cancel fails")
	}
	if len(svc.cancelled) != 1 || svc.cancelled[0] != healthy.ID {
		t.Fatalf("one failed cancel must not stop the sweep, got %v", svc.cancelled)
	}
}

func TestDraftExpiryJobValidation(t *testing.T) {
	if _, err := NewDraftExpiryJob(DraftExpiryJobParams{Drafts: &fakeDraftReader{}, Orders: &fakeOrderService{}}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewDraftExpiryJob(DraftExpiryJobParams{Logger: cronTestLogger(), Orders: &fakeOrderService{}}); err == nil {
		t.Fatal("expected error without draft reader")
	}
}

type fakeSweeper struct {
	sweeps  int
	flipped []uuid.UUID
}

func (f *fakeSweeper) SweepStale(time.Time) []uuid.UUID {
	f.sweeps++
	return f.flipped
}

func TestStaleTrackingJobSweeps(t *testing.T) {
	sweeper := &fakeSweeper{flipped: []uuid.UUID{uuid.New()}}
	job, err := NewStaleTrackingJob(StaleTrackingJobParams{
		Logger:  cronTestLogger(),
		Tracker: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sweeper.sweeps != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.sweeps)
	}
}
