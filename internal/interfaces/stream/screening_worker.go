// Package stream holds the Kafka message handlers of the screening pipeline:
// the worker that screens queued candidates and the intake that stores the
// finished reports.
package stream

import (
	"context"

	"github.com/turtacn/trademark-screening/internal/application/screening"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// Drop reasons reported to metrics.
const (
	DropMalformed    = "malformed"
	DropInvalid      = "invalid"
	DropScreenFailed = "screen_failed"
)

// Publisher publishes a JSON record.
type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, payload interface{}) error
}

// WorkerMetrics counts dropped records and published reports.
type WorkerMetrics interface {
	RecordDropped(topic, reason string)
	RecordReport(trigger string)
}

// ScreeningWorker consumes screening jobs, runs the engine, and publishes one
// result record per job keyed by requester.
type ScreeningWorker struct {
	engine      screening.Service
	publisher   Publisher
	resultTopic string
	metrics     WorkerMetrics
	logger      logging.Logger
}

// NewScreeningWorker creates a ScreeningWorker. metrics may be nil.
func NewScreeningWorker(engine screening.Service, publisher Publisher, resultTopic string, metrics WorkerMetrics, logger logging.Logger) *ScreeningWorker {
	return &ScreeningWorker{
		engine:      engine,
		publisher:   publisher,
		resultTopic: resultTopic,
		metrics:     metrics,
		logger:      logger.Named("screening-worker"),
	}
}

// Handle processes one job. Jobs that cannot be screened are logged and
// dropped; only a failed result publish is returned to the consumer.
func (w *ScreeningWorker) Handle(ctx context.Context, msg *kafka.Message) error {
	var req trademark.ScreeningRequest
	if err := msg.DecodeJSON(&req); err != nil {
		w.drop(msg, DropMalformed, err)
		return nil
	}
	if !req.Valid() {
		w.drop(msg, DropInvalid, errors.New(errors.ErrCodeCandidateInvalid, "name and uid are required"))
		return nil
	}

	candidate, err := req.Candidate()
	if err != nil {
		w.drop(msg, DropInvalid, err)
		return nil
	}
	log := w.logger.With(logging.String("uid", req.UID), logging.String("name", req.Name))

	rep, err := w.engine.Screen(ctx, candidate)
	if err != nil {
		w.drop(msg, DropScreenFailed, err)
		return nil
	}
	stored, err := trademark.NewStoredReport(req, rep)
	if err != nil {
		w.drop(msg, DropScreenFailed, err)
		return nil
	}
	if err := w.publisher.PublishJSON(ctx, w.resultTopic, req.UID, stored); err != nil {
		log.Error("failed to publish screening result", logging.String("report_id", rep.ID), logging.Err(err))
		return err
	}
	if w.metrics != nil {
		w.metrics.RecordReport(prometheus.TriggerAsync)
	}
	log.Info("screening result published",
		logging.String("report_id", rep.ID),
		logging.Int("failed_checks", len(rep.Results.Failures())))
	return nil
}

func (w *ScreeningWorker) drop(msg *kafka.Message, reason string, err error) {
	if w.metrics != nil {
		w.metrics.RecordDropped(msg.Topic, reason)
	}
	w.logger.Warn("screening job dropped",
		logging.String("topic", msg.Topic),
		logging.Int("partition", msg.Partition),
		logging.Int64("offset", msg.Offset),
		logging.String("reason", reason),
		logging.Err(err))
}
