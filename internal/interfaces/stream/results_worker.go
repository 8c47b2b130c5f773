package stream

import (
	"context"
	"strings"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
)

// ResultSink stores a finished report and fans it out.
type ResultSink interface {
	HandleResult(ctx context.Context, report *trademark.StoredReport) error
}

// ResultsWorker consumes result records.
type ResultsWorker struct {
	sink    ResultSink
	metrics WorkerMetrics
	logger  logging.Logger
}

// NewResultsWorker creates a ResultsWorker. metrics may be nil.
func NewResultsWorker(sink ResultSink, metrics WorkerMetrics, logger logging.Logger) *ResultsWorker {
	return &ResultsWorker{sink: sink, metrics: metrics, logger: logger.Named("results-worker")}
}

// Handle stores one result. Undecodable records are dropped; storage errors
// are returned so the consumer can retry.
func (w *ResultsWorker) Handle(ctx context.Context, msg *kafka.Message) error {
	var report trademark.StoredReport
	if err := msg.DecodeJSON(&report); err != nil {
		w.drop(msg, DropMalformed, err)
		return nil
	}
	if strings.TrimSpace(report.RequesterID) == "" && len(msg.Key) > 0 {
		report.RequesterID = string(msg.Key)
	}
	if strings.TrimSpace(report.RequesterID) == "" {
		w.drop(msg, DropInvalid, nil)
		return nil
	}
	if err := w.sink.HandleResult(ctx, &report); err != nil {
		w.logger.Error("failed to store screening result",
			logging.String("uid", report.RequesterID),
			logging.String("report_id", report.ID),
			logging.Err(err))
		return err
	}
	return nil
}

func (w *ResultsWorker) drop(msg *kafka.Message, reason string, err error) {
	if w.metrics != nil {
		w.metrics.RecordDropped(msg.Topic, reason)
	}
	fields := []logging.Field{
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.String("reason", reason),
	}
	if err != nil {
		fields = append(fields, logging.Err(err))
	}
	w.logger.Warn("result record dropped", fields...)
}
