package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gallery"

var (
	// StoreWrites counts JSON data file writes by file and result
	StoreWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Total number of data file writes",
		},
		[]string{"file", "result"},
	)

	// StoreReseeds counts data files recreated from seed data
	StoreReseeds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_reseeds_total",
			Help:      "Data files written from seed because they were missing or corrupt",
		},
		[]string{"file", "reason"},
	)

	// ChangeEvents counts events published on the change feed
	ChangeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_events_total",
			Help:      "Change events published to connected replicas",
		},
		[]string{"collection", "action"},
	)

	// FeedClients is the number of connected change feed clients
	FeedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_clients",
			Help:      "Connected change feed websocket clients",
		},
	)

	// PaymentNotifications counts PayFast ITN callbacks by payment status and outcome
	PaymentNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_notifications_total",
			Help:      "PayFast notifications received",
		},
		[]string{"status", "result"},
	)

	// Uploads counts image uploads by storage backend
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Image uploads by storage backend",
		},
		[]string{"storage"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// Register adds the domain collectors to reg. Registering twice on the same
// registry is reported as an error by prometheus, so callers use a fresh registry.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		StoreWrites,
		StoreReseeds,
		ChangeEvents,
		FeedClients,
		PaymentNotifications,
		Uploads,
		CircuitBreakerState,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
