// Package submission is the asynchronous front of the screening service:
// it accepts candidates for screening, stores finished reports and serves
// them back to their requester, live or from history.
package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// StatusProcessing is reported while a submission waits for its report.
const StatusProcessing = "processing"

// NoHistoryMessage is returned by the history endpoint for a requester
// without stored reports.
const NoHistoryMessage = "저장된 상표 검토 결과가 없습니다."

const (
	defaultPublishAttempts = 3
	defaultPublishBackoff  = time.Second
	defaultHistoryLimit    = 100
)

// ImageStore uploads submitted mark images.
type ImageStore interface {
	Put(ctx context.Context, uid, filename, contentType string, r io.Reader, size int64) (*trademark.StoredImage, error)
	Delete(ctx context.Context, key string) error
}

// JobPublisher enqueues screening jobs.
type JobPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, payload interface{}) error
}

// ResultBus fans finished reports out to live subscribers.
type ResultBus interface {
	Publish(ctx context.Context, requesterID string, payload []byte) error
	Subscribe(ctx context.Context, requesterID string) (<-chan []byte, error)
}

// Image is an uploaded mark image. Size is -1 when unknown.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SubmitInput is one screening submission.
type SubmitInput struct {
	Name        string
	ProductName string
	RequesterID string
	Image       *Image
}

// Accepted acknowledges a submission.
type Accepted struct {
	Message  string `json:"message"`
	Status   string `json:"status"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Config tunes the service.
type Config struct {
	WorkerTopic     string
	PublishAttempts int
	PublishBackoff  time.Duration
	HistoryLimit    int
}

// Service is the submission application service.
type Service interface {
	Submit(ctx context.Context, in *SubmitInput) (*Accepted, error)
	HandleResult(ctx context.Context, report *trademark.StoredReport) error
	History(ctx context.Context, requesterID string) ([]*trademark.StoredReport, error)
	Subscribe(ctx context.Context, requesterID string) (<-chan []byte, error)
}

type serviceImpl struct {
	cfg    Config
	images ImageStore
	jobs   JobPublisher
	repo   trademark.ReportRepository
	bus    ResultBus
	logger logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewService builds the service. images may be nil when object storage is
// disabled; submissions carrying an image are then rejected.
func NewService(cfg Config, images ImageStore, jobs JobPublisher, repo trademark.ReportRepository, bus ResultBus, logger logging.Logger) Service {
	if cfg.PublishAttempts <= 0 {
		cfg.PublishAttempts = defaultPublishAttempts
	}
	if cfg.PublishBackoff <= 0 {
		cfg.PublishBackoff = defaultPublishBackoff
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &serviceImpl{
		cfg:    cfg,
		images: images,
		jobs:   jobs,
		repo:   repo,
		bus:    bus,
		logger: logger,
		sleep:  sleepCtx,
	}
}

func (s *serviceImpl) Submit(ctx context.Context, in *SubmitInput) (*Accepted, error) {
	if in == nil || strings.TrimSpace(in.RequesterID) == "" {
		return nil, errors.Unauthorized("requester id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.New(errors.ErrCodeCandidateInvalid, "name is required")
	}
	s.logger.Info("submitting trademark check",
		logging.String("name", in.Name),
		logging.String("uid", in.RequesterID))

	var image *trademark.StoredImage
	if in.Image != nil {
		if s.images == nil {
			return nil, errors.New(errors.ErrCodeServiceUnavailable, "image storage is not configured")
		}
		var err error
		image, err = s.images.Put(ctx, in.RequesterID, in.Image.Filename, in.Image.ContentType, in.Image.Body, in.Image.Size)
		if err != nil {
			s.logger.Error("image upload failed", logging.String("uid", in.RequesterID), logging.Err(err))
			return nil, err
		}
	}

	job := trademark.ScreeningRequest{
		Name:        in.Name,
		ProductName: in.ProductName,
		UID:         in.RequesterID,
	}
	if image != nil {
		job.ImageURL = image.URL
	}

	if err := s.publish(ctx, job); err != nil {
		if image != nil {
			if derr := s.images.Delete(context.WithoutCancel(ctx), image.Key); derr != nil {
				s.logger.Warn("orphaned image not removed", logging.String("key", image.Key), logging.Err(derr))
			}
		}
		return nil, err
	}

	s.logger.Info("trademark check initiated", logging.String("name", in.Name), logging.String("uid", in.RequesterID))
	return &Accepted{
		Message:  fmt.Sprintf("Trademark check for '%s' initiated", in.Name),
		Status:   StatusProcessing,
		ImageURL: job.ImageURL,
	}, nil
}

func (s *serviceImpl) publish(ctx context.Context, job trademark.ScreeningRequest) error {
	var err error
	for attempt := 1; attempt <= s.cfg.PublishAttempts; attempt++ {
		if err = s.jobs.PublishJSON(ctx, s.cfg.WorkerTopic, job.UID, job); err == nil {
			return nil
		}
		s.logger.Warn("publish screening job failed",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", s.cfg.PublishAttempts),
			logging.Err(err))
		if attempt < s.cfg.PublishAttempts {
			if serr := s.sleep(ctx, s.cfg.PublishBackoff); serr != nil {
				return errors.Wrap(serr, errors.ErrCodeMessagingError, "publish cancelled")
			}
		}
	}
	return err
}

// HandleResult stores a finished report and forwards it to live streams.
// A failed fan-out is logged; the report is already durable.
func (s *serviceImpl) HandleResult(ctx context.Context, report *trademark.StoredReport) error {
	if report == nil || report.RequesterID == "" {
		return errors.InvalidParam("report without requester")
	}
	if err := s.repo.Save(ctx, report); err != nil {
		s.logger.Error("failed to store report",
			logging.String("uid", report.RequesterID),
			logging.String("name", report.Name),
			logging.Err(err))
		return err
	}
	s.logger.Info("report stored", logging.String("id", report.ID), logging.String("uid", report.RequesterID))

	if s.bus == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal report")
	}
	if err := s.bus.Publish(ctx, report.RequesterID, payload); err != nil {
		s.logger.Warn("live fan-out failed", logging.String("uid", report.RequesterID), logging.Err(err))
	}
	return nil
}

func (s *serviceImpl) History(ctx context.Context, requesterID string) ([]*trademark.StoredReport, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, errors.Unauthorized("requester id is required")
	}
	reports, err := s.repo.ListByRequester(ctx, requesterID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("history loaded", logging.String("uid", requesterID), logging.Int("count", len(reports)))
	return reports, nil
}

func (s *serviceImpl) Subscribe(ctx context.Context, requesterID string) (<-chan []byte, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, errors.Unauthorized("requester id is required")
	}
	if s.bus == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "live results are not configured")
	}
	return s.bus.Subscribe(ctx, requesterID)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
