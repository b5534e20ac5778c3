// Package metrics provides Prometheus metrics for the ranking saver.
//
// Nothing is served over the network. Metrics live on a private registry and
// are flushed to a node-exporter textfile when a path is configured.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tracking state values reported by the tracking_state gauge.
const (
	StateIdle     = 0
	StateTracking = 1
	StateStopping = 2
)

var defaultParticipantBuckets = []float64{1, 2, 4, 8, 16, 32, 64, 128}

// Manager owns every metric of the process.
type Manager struct {
	namespace          string
	subsystem          string
	latencyBuckets     []float64
	participantBuckets []float64
	constLabels        map[string]string
	registry           *prometheus.Registry

	// Ranking
	roundsRanked      prometheus.Counter
	roundParticipants prometheus.Histogram
	roundFinishers    prometheus.Histogram
	validationErrors  prometheus.Counter

	// Persistence
	roundsSaved     prometheus.Counter
	saveErrors      prometheus.Counter
	saveLatency     prometheus.Histogram
	lastSaveSuccess prometheus.Gauge

	// Session
	trackingState prometheus.Gauge
	chatMessages  prometheus.Counter

	// Event flow
	queueSize        prometheus.Gauge
	enqueueErrors    *prometheus.CounterVec
	eventsDispatched *prometheus.CounterVec
	dispatchErrors   *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager on its own registry unless one is
// supplied with WithRegistry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:          "rankingsaver",
		subsystem:          "",
		latencyBuckets:     prometheus.DefBuckets,
		participantBuckets: defaultParticipantBuckets,
		constLabels:        map[string]string{},
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.roundsRanked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "rounds_ranked_total",
		Help: "Total number of map results ranked",
	})
	m.roundParticipants = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    "round_participants",
		Help:    "Number of racers per ranked map",
		Buckets: m.participantBuckets,
	})
	m.roundFinishers = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    "round_finishers",
		Help:    "Number of racers with a valid time per ranked map",
		Buckets: m.participantBuckets,
	})
	m.validationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "validation_errors_total",
		Help: "Total number of rejected host rosters",
	})

	m.roundsSaved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "rounds_saved_total",
		Help: "Total number of map results appended to a day file",
	})
	m.saveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "round_save_errors_total",
		Help: "Total number of failed day file appends",
	})
	m.saveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    "round_save_latency_seconds",
		Help:    "Time spent on the read-modify-write of a day file",
		Buckets: m.latencyBuckets,
	})
	m.lastSaveSuccess = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "last_save_success_timestamp_seconds",
		Help: "Unix time of the last successful day file append",
	})

	m.trackingState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "tracking_state",
		Help: "Tournament tracking state (0 idle, 1 tracking, 2 stopping)",
	})
	m.chatMessages = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "chat_messages_total",
		Help: "Total number of chat announcements sent",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "queue_size",
		Help: "Host events waiting to be dispatched",
	})
	m.enqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "queue_enqueue_errors_total",
		Help: "Host events rejected by the queue, by reason",
	}, []string{"reason"})
	m.eventsDispatched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "events_dispatched_total",
		Help: "Host events handed to the tracker, by type",
	}, []string{"type"})
	m.dispatchErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: "dispatch_errors_total",
		Help: "Host events the tracker failed to handle, by type",
	}, []string{"type"})
}

// Registry returns the registry the manager's metrics live on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes every metric of the manager to path in the text
// exposition format. The write goes through a temporary file and a rename.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}

// RecordRoundRanked records a ranked map with its field size.
func RecordRoundRanked(participants, finishers int) {
	globalManager.roundsRanked.Inc()
	globalManager.roundParticipants.Observe(float64(participants))
	globalManager.roundFinishers.Observe(float64(finishers))
}

// RecordValidationError counts a rejected roster.
func RecordValidationError() {
	globalManager.validationErrors.Inc()
}

// RecordRoundSaved records a successful append and its latency.
func RecordRoundSaved(seconds float64, unixTime int64) {
	globalManager.roundsSaved.Inc()
	globalManager.saveLatency.Observe(seconds)
	globalManager.lastSaveSuccess.Set(float64(unixTime))
}

// RecordSaveError records a failed append and its latency.
func RecordSaveError(seconds float64) {
	globalManager.saveErrors.Inc()
	globalManager.saveLatency.Observe(seconds)
}

// UpdateTrackingState sets the tracking_state gauge.
func UpdateTrackingState(state int) {
	globalManager.trackingState.Set(float64(state))
}

// RecordChatMessage counts an announcement.
func RecordChatMessage() {
	globalManager.chatMessages.Inc()
}

// UpdateQueueSize sets the queue_size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordEnqueueError counts a rejected host event.
func RecordEnqueueError(reason string) {
	globalManager.enqueueErrors.WithLabelValues(reason).Inc()
}

// RecordEventDispatched counts a host event handed to the tracker.
func RecordEventDispatched(eventType string) {
	globalManager.eventsDispatched.WithLabelValues(eventType).Inc()
}

// RecordDispatchError counts a host event the tracker failed on.
func RecordDispatchError(eventType string) {
	globalManager.dispatchErrors.WithLabelValues(eventType).Inc()
}

// WriteTextfile flushes the global metrics to path.
func WriteTextfile(path string) error {
	return globalManager.WriteTextfile(path)
}

// GetRegistry returns the registry behind the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return globalManager.registry
}
