// Package metrics exposes Prometheus collectors for the relay server.
//
// Metrics collected:
//   - rps_active_games: Gauge of games in the registry
//   - rps_connections: Gauge of open WebSocket connections
//   - rps_games_created_total: Counter of games created
//   - rps_games_ended_total: Counter of deleted games by reason
//   - rps_events_total: Counter of inbound events by event and outcome
//   - rps_event_duration_seconds: Histogram of event handling time
//
// A nil *Collector is valid and records nothing, so components can be built
// without metrics in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons a game can end
const (
	ReasonLeft       = "left"
	ReasonDisconnect = "disconnect"
)

// Event outcomes
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "rps").
	Namespace string

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "rps",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the relay's metrics.
type Collector struct {
	activeGames   prometheus.Gauge
	connections   prometheus.Gauge
	gamesCreated  prometheus.Counter
	gamesEnded    *prometheus.CounterVec
	events        *prometheus.CounterVec
	eventDuration *prometheus.HistogramVec
}

// NewCollector registers the relay metrics and returns a Collector.
// Registering twice on the same registry panics, as with promauto.
func NewCollector(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		activeGames: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "active_games",
			Help:      "Number of games in the registry",
		}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "connections",
			Help:      "Number of open WebSocket connections",
		}),

		gamesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "games_created_total",
			Help:      "Total number of games created",
		}),

		gamesEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "games_ended_total",
			Help:      "Total number of games deleted by reason",
		}, []string{"reason"}),

		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "events_total",
			Help:      "Total number of inbound events by event and outcome",
		}, []string{"event", "outcome"}),

		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "event_duration_seconds",
			Help:      "Inbound event handling duration in seconds",
			Buckets:   config.Buckets,
		}, []string{"event"}),
	}
}

// GameCreated records a new game.
func (c *Collector) GameCreated() {
	if c == nil {
		return
	}
	c.gamesCreated.Inc()
	c.activeGames.Inc()
}

// GameEnded records a deleted game.
func (c *Collector) GameEnded(reason string) {
	if c == nil {
		return
	}
	c.gamesEnded.WithLabelValues(reason).Inc()
	c.activeGames.Dec()
}

// ConnectionOpened records a new WebSocket connection.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connections.Inc()
}

// ConnectionClosed records a closed WebSocket connection.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connections.Dec()
}

// ObserveEvent records one handled inbound event.
func (c *Collector) ObserveEvent(event string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.events.WithLabelValues(event, outcome).Inc()
	c.eventDuration.WithLabelValues(event).Observe(elapsed.Seconds())
}
