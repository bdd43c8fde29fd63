package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the metadata service.
// All record helpers tolerate a nil receiver so components can run
// uninstrumented in tests.
type Metrics struct {
	// Connection metrics
	ConnectionsAccepted prometheus.Counter
	ActiveSessions      prometheus.Gauge
	SessionDuration     prometheus.Histogram
	BytesRead           prometheus.Counter
	BytesWritten        prometheus.Counter
	WriteQueueDrops     prometheus.Counter

	// Protocol metrics
	MessagesFramed   prometheus.Counter
	FramingErrors    prometheus.Counter
	EmptyResponses   prometheus.Counter
	DispatchDuration prometheus.Histogram

	// Command metrics
	CommandsDispatched *prometheus.CounterVec
	UnknownCommands    prometheus.Counter

	// Artwork metrics
	ArtworkConversions prometheus.Counter
	ArtworkFailures    prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Connection metrics
		ConnectionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "airfoil_connections_accepted_total",
			Help: "Total number of peer connections accepted",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "airfoil_active_sessions",
			Help: "Current number of live protocol sessions",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "airfoil_session_duration_seconds",
			Help:    "Duration of protocol sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		}),
		BytesRead: promauto.NewCounter(prometheus.CounterOpts{
			Name: "airfoil_bytes_read_total",
			Help: "Total bytes read from peers",
		}),
		BytesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "airfoil_bytes_written_total",
			Help: "Total bytes written to peers",
		}),
		WriteQueueDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "airfoil_write_queue_drops_total",
			Help: "Total responses dropped because a write queue was full",
		}),

		// Protocol metrics
		MessagesFramed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "airfoil_messages_framed_total",
			Help: "Total number of complete messages reassembled from the stream",
		}),
		FramingErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "airfoil_framing_errors_total",
			Help: "Total number of protocol framing errors",
		}),
		EmptyResponses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "airfoil_empty_responses_total",
			Help: "Total number of responses sent as the empty-body substitute",
		}),
		DispatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "airfoil_dispatch_duration_seconds",
			Help:    "Time spent handling a single inbound message",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
		}),

		// Command metrics
		CommandsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "airfoil_commands_dispatched_total",
			Help: "Total commands dispatched, by command token",
		}, []string{"command"}),
		UnknownCommands: promauto.NewCounter(prometheus.CounterOpts{
			Name: "airfoil_unknown_commands_total",
			Help: "Total inbound messages that matched no known command",
		}),

		// Artwork metrics
		ArtworkConversions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "airfoil_artwork_conversions_total",
			Help: "Total album-art payloads re-encoded to PNG",
		}),
		ArtworkFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "airfoil_artwork_failures_total",
			Help: "Total album-art payloads dropped because normalization failed",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "airfoil_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "airfoil_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "airfoil_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordConnectionAccepted increments the accepted-connections counter.
func (m *Metrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.ConnectionsAccepted.Inc()
}

// SetActiveSessions sets the live session gauge.
func (m *Metrics) SetActiveSessions(count int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(count))
}

// RecordSessionClosed records the duration of a finished session.
func (m *Metrics) RecordSessionClosed(durationSeconds float64) {
	if m == nil {
		return
	}
	m.SessionDuration.Observe(durationSeconds)
}

// RecordBytesRead adds to the inbound byte counter.
func (m *Metrics) RecordBytesRead(n int) {
	if m == nil {
		return
	}
	m.BytesRead.Add(float64(n))
}

// RecordBytesWritten adds to the outbound byte counter.
func (m *Metrics) RecordBytesWritten(n int) {
	if m == nil {
		return
	}
	m.BytesWritten.Add(float64(n))
}

// RecordWriteQueueDrop increments the dropped-responses counter.
func (m *Metrics) RecordWriteQueueDrop() {
	if m == nil {
		return
	}
	m.WriteQueueDrops.Inc()
}

// RecordMessageFramed increments the completed-messages counter.
func (m *Metrics) RecordMessageFramed() {
	if m == nil {
		return
	}
	m.MessagesFramed.Inc()
}

// RecordFramingError increments the framing-errors counter.
func (m *Metrics) RecordFramingError() {
	if m == nil {
		return
	}
	m.FramingErrors.Inc()
}

// RecordDispatch records one handled message and its outcome.
func (m *Metrics) RecordDispatch(durationSeconds float64, emptyResponse bool) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(durationSeconds)
	if emptyResponse {
		m.EmptyResponses.Inc()
	}
}

// RecordCommand counts a recognized command token.
func (m *Metrics) RecordCommand(token string) {
	if m == nil {
		return
	}
	m.CommandsDispatched.WithLabelValues(token).Inc()
}

// RecordUnknownCommand counts an unrecognized message body.
func (m *Metrics) RecordUnknownCommand() {
	if m == nil {
		return
	}
	m.UnknownCommands.Inc()
}

// RecordArtworkConversion counts a successful PNG re-encode.
func (m *Metrics) RecordArtworkConversion() {
	if m == nil {
		return
	}
	m.ArtworkConversions.Inc()
}

// RecordArtworkFailure counts a dropped album-art payload.
func (m *Metrics) RecordArtworkFailure() {
	if m == nil {
		return
	}
	m.ArtworkFailures.Inc()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error.
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
