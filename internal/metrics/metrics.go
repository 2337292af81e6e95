// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection lifecycle metrics
var (
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connections_active",
			Help: "Currently registered WebSocket connections",
		},
	)

	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_connections_total",
			Help: "Connection attempts by outcome (accepted/rejected reason)",
		},
		[]string{"outcome"},
	)

	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_rooms_active",
			Help: "Rooms with at least one member",
		},
	)
)

// Message handling metrics
var (
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_messages_total",
			Help: "Inbound client messages by event type",
		},
		[]string{"type"},
	)

	MalformedMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_malformed_messages_total",
			Help: "Inbound messages dropped as malformed or unknown",
		},
	)

	BroadcastFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hub_broadcast_fanout_recipients",
			Help:    "Recipients per room broadcast",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	SlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Connections dropped because their send buffer stayed full",
		},
	)

	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_websocket_ping_failures_total",
			Help: "Keepalive pings that failed to write",
		},
	)
)

// Persistence gateway metrics
var (
	PersistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_persist_failures_total",
			Help: "Failed persistence operations by operation name",
		},
		[]string{"operation"},
	)

	GatewayBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_gateway_breaker_state_changes_total",
			Help: "Gateway circuit breaker transitions by new state",
		},
		[]string{"state"},
	)

	DisplayNameCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_display_name_cache_hits_total",
			Help: "Display-name lookups served from cache",
		},
	)

	DisplayNameCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_display_name_cache_misses_total",
			Help: "Display-name lookups that went to the gateway",
		},
	)
)
