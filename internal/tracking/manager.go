package tracking

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/geo"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
	"github.com/mesaviva/mesaviva-backend/pkg/metrics"
)

// Broadcaster pushes a tracking payload to everyone watching an order.
type Broadcaster interface {
	Broadcast(orderID uuid.UUID, payload []byte)
}

// Manager owns the live trackers for all in-flight deliveries. It listens to
// order transitions: dispatch opens a tracker, any terminal status closes it.
type Manager struct {
	mu       sync.RWMutex
	trackers map[uuid.UUID]*Tracker

	distancer   geo.Distancer
	settings    Settings
	broadcaster Broadcaster
	metrics     *metrics.TrackingMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewManager builds the tracking registry.
func NewManager(distancer geo.Distancer, settings Settings, broadcaster Broadcaster, trackingMetrics *metrics.TrackingMetrics, logg *logger.Logger) *Manager {
	if distancer == nil {
		distancer = geo.HaversineDistancer()
	}
	return &Manager{
		trackers:    map[uuid.UUID]*Tracker{},
		distancer:   distancer,
		settings:    settings,
		broadcaster: broadcaster,
		metrics:     trackingMetrics,
		logg:        logg,
		now:         time.Now,
	}
}

// Register opens a tracker for an order headed to destination. Re-registering
// an order keeps the existing tracker.
func (m *Manager) Register(orderID uuid.UUID, destination geo.LatLng, startedAt time.Time) *Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tracker, ok := m.trackers[orderID]; ok {
		return tracker
	}
	tracker := NewTracker(destination, m.distancer, m.settings, startedAt)
	m.trackers[orderID] = tracker
	m.metrics.TrackerOpened()
	return tracker
}

// Ingest routes a courier sample to the order's tracker and fans the fresh
// state out to watchers.
func (m *Manager) Ingest(ctx context.Context, orderID uuid.UUID, sample Sample) (State, error) {
	m.mu.RLock()
	tracker, ok := m.trackers[orderID]
	m.mu.RUnlock()
	if !ok {
		m.metrics.IncRejected("untracked_order")
		return State{}, pkgerrors.New(pkgerrors.CodeNotFound, "order is not being tracked")
	}

	state, err := tracker.Ingest(ctx, sample)
	if err != nil {
		m.metrics.IncRejected(rejectionReason(err))
		return State{}, err
	}
	m.metrics.IncSample("http")
	m.publish(orderID, state)
	return state, nil
}

// State reads the snapshot for an order.
func (m *Manager) State(orderID uuid.UUID) (State, error) {
	m.mu.RLock()
	tracker, ok := m.trackers[orderID]
	m.mu.RUnlock()
	if !ok {
		return State{}, pkgerrors.New(pkgerrors.CodeNotFound, "order is not being tracked")
	}
	return tracker.State(m.now()), nil
}

// Close drops the tracker once the delivery finished.
func (m *Manager) Close(orderID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trackers[orderID]; !ok {
		return
	}
	delete(m.trackers, orderID)
	m.metrics.TrackerClosed()
}

// SweepStale flips quiet trackers to stale and broadcasts the change once
// per outage. It returns the orders flipped in this pass.
func (m *Manager) SweepStale(now time.Time) []uuid.UUID {
	m.mu.RLock()
	snapshot := make(map[uuid.UUID]*Tracker, len(m.trackers))
	for id, tracker := range m.trackers {
		snapshot[id] = tracker
	}
	m.mu.RUnlock()

	var flipped []uuid.UUID
	for id, tracker := range snapshot {
		if tracker.MarkStaleIfQuiet(now) {
			flipped = append(flipped, id)
			m.metrics.IncStaleFlip()
			m.publish(id, tracker.State(now))
		}
	}
	return flipped
}

// OnOrderTransition implements the order lifecycle hook. Dispatch opens the
// tracker against the delivery address; delivered or cancelled closes it.
func (m *Manager) OnOrderTransition(ctx context.Context, order *models.Order, from, to enums.OrderStatus) {
	switch to {
	case enums.OrderStatusOutForDelivery:
		startedAt := m.now()
		if order.DispatchedAt != nil {
			startedAt = *order.DispatchedAt
		}
		m.Register(order.ID, geo.LatLng{Lat: order.Address.Lat, Lng: order.Address.Lng}, startedAt)
		if m.logg != nil {
			m.logg.Info(m.logg.WithOrderID(ctx, order.ID.String()), "delivery tracking started")
		}
	case enums.OrderStatusDelivered, enums.OrderStatusCancelled:
		m.Close(order.ID)
	}
}

func (m *Manager) publish(orderID uuid.UUID, state State) {
	if m.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return
	}
	m.broadcaster.Broadcast(orderID, payload)
}

func rejectionReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "unknown"
	}
	switch typed.Code() {
	case pkgerrors.CodeConflict:
		return "out_of_order"
	case pkgerrors.CodeValidation:
		return "invalid_sample"
	case pkgerrors.CodeDependency:
		return "distance_unavailable"
	default:
		return "unknown"
	}
}
