package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TrackingMetrics records courier telemetry ingest activity.
type TrackingMetrics struct {
	samples     *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	staleFlips  prometheus.Counter
	etaSmoothed prometheus.Counter
	active      prometheus.Gauge
}

// NewTrackingMetrics registers the tracking metrics on the provided registerer.
func NewTrackingMetrics(reg prometheus.Registerer) *TrackingMetrics {
	if reg == nil {
		return &TrackingMetrics{}
	}
	samples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_samples_total",
		Help: "Courier position samples accepted by the tracker.",
	}, []string{"source"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_samples_rejected_total",
		Help: "Courier position samples rejected before ingest.",
	}, []string{"reason"})
	staleFlips := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_stale_transitions_total",
		Help: "Trackers flipped from live to stale.",
	})
	etaSmoothed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_eta_smoothed_total",
		Help: "ETA updates suppressed by the smoothing window.",
	})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracking_active_trackers",
		Help: "Trackers currently registered for in-flight deliveries.",
	})
	reg.MustRegister(samples, rejected, staleFlips, etaSmoothed, active)
	return &TrackingMetrics{
		samples:     samples,
		rejected:    rejected,
		staleFlips:  staleFlips,
		etaSmoothed: etaSmoothed,
		active:      active,
	}
}

// IncSample counts an accepted position sample from the named source.
func (t *TrackingMetrics) IncSample(source string) {
	if t == nil || t.samples == nil {
		return
	}
	t.samples.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncRejected counts a rejected sample by reason.
func (t *TrackingMetrics) IncRejected(reason string) {
	if t == nil || t.rejected == nil {
		return
	}
	t.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncStaleFlip counts a live-to-stale transition.
func (t *TrackingMetrics) IncStaleFlip() {
	if t == nil || t.staleFlips == nil {
		return
	}
	t.staleFlips.Inc()
}

// IncETASmoothed counts an ETA held back by the smoothing window.
func (t *TrackingMetrics) IncETASmoothed() {
	if t == nil || t.etaSmoothed == nil {
		return
	}
	t.etaSmoothed.Inc()
}

// TrackerOpened increments the active tracker gauge.
func (t *TrackingMetrics) TrackerOpened() {
	if t == nil || t.active == nil {
		return
	}
	t.active.Inc()
}

// TrackerClosed decrements the active tracker gauge.
func (t *TrackingMetrics) TrackerClosed() {
	if t == nil || t.active == nil {
		return
	}
	t.active.Dec()
}
