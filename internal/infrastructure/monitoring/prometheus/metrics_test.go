package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	apperrors "github.com/turtacn/trademark-screening/pkg/errors"
)

func TestScreeningMetrics_ObserveCheck(t *testing.T) {
	c := newTestCollector(t)
	m := NewScreeningMetrics(c)

	m.ObserveCheck(trademark.CheckSameName, 20*time.Millisecond, nil)
	m.ObserveCheck(trademark.CheckSimilarPronun, time.Second,
		apperrors.New(apperrors.ErrCodeCollaboratorTimeout, "g2p timed out"))

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_check_duration_seconds_count{check="find_same_name"} 1`)
	assert.Contains(t, output, `test_unit_check_failures_total{check="find_similar_pronun",kind="CollaboratorUnavailable"} 1`)
	assert.NotContains(t, output, `check_failures_total{check="find_same_name"`)
}

func TestScreeningMetrics_Messages(t *testing.T) {
	c := newTestCollector(t)
	m := NewScreeningMetrics(c)

	m.ObserveMessage("trademark-workers", "processed")
	m.ObserveMessage("trademark-workers", "processed")
	m.RecordDropped("trademark-workers", "missing_fields")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_kafka_messages_total{outcome="processed",topic="trademark-workers"} 2`)
	assert.Contains(t, output, `test_unit_kafka_messages_dropped_total{reason="missing_fields",topic="trademark-workers"} 1`)
}

func TestScreeningMetrics_ReportsHTTPAndHealth(t *testing.T) {
	c := newTestCollector(t)
	m := NewScreeningMetrics(c)

	m.RecordReport(TriggerSync)
	m.RecordHTTPRequest("POST", "/process_trademark", 200, 150*time.Millisecond)
	m.RecordHealth("redis", true)
	m.RecordHealth("postgres", false)
	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_reports_total{trigger="sync"} 1`)
	assert.Contains(t, output, `test_unit_http_requests_total{method="POST",route="/process_trademark",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_health_check_status{component="redis"} 1`)
	assert.Contains(t, output, `test_unit_health_check_status{component="postgres"} 0`)
	assert.Contains(t, output, `test_unit_stream_subscribers 1`)
}
