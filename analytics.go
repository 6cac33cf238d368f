package gamenight

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EventMetrics tracks event-related metrics
var EventMetrics = struct {
	EventsTotal      *prometheus.CounterVec
	GatewayLatency   *prometheus.GaugeVec
	SequenceGaps     *prometheus.CounterVec
	HandlersInFlight prometheus.Gauge
	HandlersWaiting  prometheus.Gauge
	HandlerErrors    *prometheus.CounterVec
}{
	EventsTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamenight_events_total",
			Help: "Total number of dispatch events processed, split by event type",
		},
		[]string{"event_type"},
	),
	GatewayLatency: promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gamenight_gateway_latency_seconds",
			Help: "Gateway latency in seconds, measured by heartbeat",
		},
		[]string{"shard_id"},
	),
	SequenceGaps: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamenight_sequence_gaps_total",
			Help: "Number of dispatch events skipped according to sequence numbers",
		},
		[]string{"shard_id"},
	),
	HandlersInFlight: promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gamenight_handlers_in_flight",
			Help: "Number of event handlers currently running",
		},
	),
	HandlersWaiting: promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gamenight_handlers_waiting",
			Help: "Number of event handlers queued for a pool ticket",
		},
	),
	HandlerErrors: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamenight_handler_errors_total",
			Help: "Number of event handlers that returned an error or panicked",
		},
		[]string{"event_type"},
	),
}

// ShardMetrics tracks shard-related metrics
var ShardMetrics = struct {
	ShardStatus      *prometheus.GaugeVec
	Reconnects       *prometheus.CounterVec
	HeartbeatStrikes *prometheus.CounterVec
}{
	ShardStatus: promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gamenight_shard_status",
			Help: "Status of the shard",
		},
		[]string{"shard_id"},
	),
	Reconnects: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamenight_shard_reconnects_total",
			Help: "Number of reconnects, split by reason",
		},
		[]string{"shard_id", "reason"},
	),
	HeartbeatStrikes: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamenight_heartbeat_strikes_total",
			Help: "Number of heartbeats sent while the previous one was not acknowledged",
		},
		[]string{"shard_id"},
	),
}

// RestMetrics tracks outbound requests
var RestMetrics = struct {
	Requests        *prometheus.CounterVec
	Retries         *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimitWaits  *prometheus.CounterVec
}{
	Requests: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamenight_rest_requests_total",
			Help: "Number of REST requests, split by route and status",
		},
		[]string{"route", "status"},
	),
	Retries: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamenight_rest_retries_total",
			Help: "Number of REST requests retried after a transient failure",
		},
		[]string{"route"},
	),
	RequestDuration: promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gamenight_rest_request_duration_seconds",
			Help:    "Duration of a single REST attempt",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	),
	RateLimitWaits: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamenight_rest_ratelimit_waits_total",
			Help: "Number of times a request waited for a bucket to reset",
		},
		[]string{"method"},
	),
}

// StateMetrics tracks cache sizes
var StateMetrics = struct {
	Entries *prometheus.GaugeVec
}{
	Entries: promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gamenight_state_entries",
			Help: "Number of cached entries, split by collection",
		},
		[]string{"collection"},
	),
}

func shardLabel(shardID int32) string {
	return strconv.FormatInt(int64(shardID), 10)
}
