package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/mesaviva/mesaviva-backend/pkg/config"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/geo"
)

// Sample is one courier position report.
type Sample struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Heading   *float64  `json:"heading,omitempty"`
	SpeedMPS  *float64  `json:"speed_mps,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the customer-facing tracking snapshot.
type State struct {
	IsLive          bool       `json:"is_live"`
	Position        *geo.LatLng `json:"position,omitempty"`
	Heading         *float64   `json:"heading,omitempty"`
	ETA             time.Time  `json:"eta"`
	TimeRemaining   string     `json:"time_remaining"`
	ProgressPercent float64    `json:"progress_percent"`
	DistanceMeters  float64    `json:"distance_meters"`
	LastSampleAt    *time.Time `json:"last_sample_at,omitempty"`
}

// Settings tunes the ETA math.
type Settings struct {
	SmoothingEpsilon time.Duration
	StalenessTimeout time.Duration
	DefaultEstimate  time.Duration
	AssumedSpeedMPS  float64
}

// SettingsFromConfig maps the env config onto tracker settings.
func SettingsFromConfig(cfg config.TrackingConfig) Settings {
	return Settings{
		SmoothingEpsilon: cfg.SmoothingEpsilon,
		StalenessTimeout: cfg.StalenessTimeout,
		DefaultEstimate:  time.Duration(cfg.DefaultEstimateMinutes) * time.Minute,
		AssumedSpeedMPS:  cfg.AssumedSpeedMPS,
	}
}

// Tracker follows one delivery. It owns the ETA smoothing and the staleness
// flag for that order.
type Tracker struct {
	mu sync.Mutex

	destination geo.LatLng
	distancer   geo.Distancer
	settings    Settings

	startedAt       time.Time
	lastSample      *Sample
	eta             time.Time
	currentDistance float64
	live            bool
	staleNotified   bool
}

// NewTracker starts tracking a delivery headed to destination. Until the
// first sample lands, the ETA is the dispatch time plus the default estimate.
func NewTracker(destination geo.LatLng, distancer geo.Distancer, settings Settings, startedAt time.Time) *Tracker {
	if distancer == nil {
		distancer = geo.HaversineDistancer()
	}
	return &Tracker{
		destination: destination,
		distancer:   distancer,
		settings:    settings,
		startedAt:   startedAt,
		eta:         startedAt.Add(settings.DefaultEstimate),
	}
}

// Ingest folds a position sample into the tracker. Samples at or before the
// last accepted timestamp are rejected so replays and out-of-order delivery
// cannot rewind the state.
func (t *Tracker) Ingest(ctx context.Context, sample Sample) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if sample.Timestamp.IsZero() {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "sample timestamp is required")
	}
	if t.lastSample != nil && !sample.Timestamp.After(t.lastSample.Timestamp) {
		return State{}, pkgerrors.New(pkgerrors.CodeConflict, "sample is not newer than the last accepted one").
			WithDetails(map[string]any{
				"last_accepted": t.lastSample.Timestamp,
				"received":      sample.Timestamp,
			})
	}

	distance, err := t.distancer.Distance(ctx, geo.LatLng{Lat: sample.Lat, Lng: sample.Lng}, t.destination)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "measuring remaining distance")
	}

	t.currentDistance = distance
	t.lastSample = &sample
	t.live = true
	t.staleNotified = false

	speed := t.settings.AssumedSpeedMPS
	if sample.SpeedMPS != nil && *sample.SpeedMPS > 0 {
		speed = *sample.SpeedMPS
	}
	if speed > 0 {
		candidate := sample.Timestamp.Add(time.Duration(distance / speed * float64(time.Second)))
		t.eta = t.smooth(candidate)
	}

	return t.stateLocked(sample.Timestamp), nil
}

// smooth keeps the previous ETA when the new one only jitters slightly
// earlier. Small backward jumps read as glitches to customers; real
// improvements larger than the epsilon pass through.
func (t *Tracker) smooth(candidate time.Time) time.Time {
	if candidate.Before(t.eta) && t.eta.Sub(candidate) <= t.settings.SmoothingEpsilon {
		return t.eta
	}
	return candidate
}

// State reads the snapshot as of now. Crossing the staleness timeout flips
// the live flag on read, without waiting for the sweeper.
func (t *Tracker) State(now time.Time) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.live && t.lastSample != nil && now.Sub(t.lastSample.Timestamp) > t.settings.StalenessTimeout {
		t.live = false
	}
	return t.stateLocked(now)
}

// MarkStaleIfQuiet flips a live tracker to stale when no sample arrived
// within the timeout. It reports true only on the first flip, so the sweeper
// broadcasts each outage once.
func (t *Tracker) MarkStaleIfQuiet(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastSample == nil || now.Sub(t.lastSample.Timestamp) <= t.settings.StalenessTimeout {
		return false
	}
	t.live = false
	if t.staleNotified {
		return false
	}
	t.staleNotified = true
	return true
}

func (t *Tracker) stateLocked(now time.Time) State {
	state := State{
		IsLive:          t.live,
		ETA:             t.eta,
		TimeRemaining:   FormatTimeRemaining(t.eta.Sub(now)),
		ProgressPercent: t.progressLocked(now),
		DistanceMeters:  t.currentDistance,
	}
	if t.lastSample != nil {
		state.Position = &geo.LatLng{Lat: t.lastSample.Lat, Lng: t.lastSample.Lng}
		state.Heading = t.lastSample.Heading
		at := t.lastSample.Timestamp
		state.LastSampleAt = &at
	}
	return state
}

// progressLocked maps elapsed time onto 0-100 against the estimated delivery
// window (dispatch to current ETA). The clock keeps moving while a courier is
// stuck in traffic, so the stepper advances even when the remaining distance
// does not. The value is clamped to [0, 100].
func (t *Tracker) progressLocked(now time.Time) float64 {
	total := t.eta.Sub(t.startedAt)
	if total <= 0 {
		return 100
	}
	progress := float64(now.Sub(t.startedAt)) / float64(total) * 100
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}
