package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	apperrors "github.com/turtacn/trademark-screening/pkg/errors"
)

// Report triggers.
const (
	TriggerSync  = "sync"
	TriggerAsync = "async"
	TriggerCLI   = "cli"
)

var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultCheckDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10, 20}
)

// ScreeningMetrics holds the service metrics. It implements the engine's
// check observer and the Kafka consumer observer.
type ScreeningMetrics struct {
	CheckDuration   HistogramVec
	CheckFailures   CounterVec
	ReportsTotal    CounterVec
	MessagesTotal   CounterVec
	MessagesDropped CounterVec

	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	StreamSubscribers GaugeVec
	HealthCheckStatus GaugeVec
}

// NewScreeningMetrics registers every metric on collector.
func NewScreeningMetrics(collector MetricsCollector) *ScreeningMetrics {
	return &ScreeningMetrics{
		CheckDuration:   collector.RegisterHistogram("check_duration_seconds", "Duration of one screening check", DefaultCheckDurationBuckets, "check"),
		CheckFailures:   collector.RegisterCounter("check_failures_total", "Failed screening checks", "check", "kind"),
		ReportsTotal:    collector.RegisterCounter("reports_total", "Screening reports produced", "trigger"),
		MessagesTotal:   collector.RegisterCounter("kafka_messages_total", "Consumed Kafka records by outcome", "topic", "outcome"),
		MessagesDropped: collector.RegisterCounter("kafka_messages_dropped_total", "Consumed Kafka records dropped before processing", "topic", "reason"),

		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "route", "status_code"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route"),

		StreamSubscribers: collector.RegisterGauge("stream_subscribers", "Open live result streams"),
		HealthCheckStatus: collector.RegisterGauge("health_check_status", "Dependency health (1=up, 0=down)", "component"),
	}
}

// ObserveCheck records one finished check.
func (m *ScreeningMetrics) ObserveCheck(check trademark.CheckName, elapsed time.Duration, err *apperrors.AppError) {
	m.CheckDuration.WithLabelValues(string(check)).Observe(elapsed.Seconds())
	if err != nil {
		m.CheckFailures.WithLabelValues(string(check), string(err.Kind())).Inc()
	}
}

// ObserveMessage records one consumed Kafka record.
func (m *ScreeningMetrics) ObserveMessage(topic, outcome string) {
	m.MessagesTotal.WithLabelValues(topic, outcome).Inc()
}

// RecordDropped counts a record rejected before processing.
func (m *ScreeningMetrics) RecordDropped(topic, reason string) {
	m.MessagesDropped.WithLabelValues(topic, reason).Inc()
}

// RecordReport counts a report produced through trigger.
func (m *ScreeningMetrics) RecordReport(trigger string) {
	m.ReportsTotal.WithLabelValues(trigger).Inc()
}

// RecordHTTPRequest records one served request. route is the router pattern,
// never the raw path.
func (m *ScreeningMetrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordHealth sets a dependency's health gauge.
func (m *ScreeningMetrics) RecordHealth(component string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

// StreamOpened and StreamClosed track open live result streams.
func (m *ScreeningMetrics) StreamOpened() { m.StreamSubscribers.WithLabelValues().Inc() }

func (m *ScreeningMetrics) StreamClosed() { m.StreamSubscribers.WithLabelValues().Dec() }
