package stream

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/trademark-screening/internal/testutil"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

type fakeEngine struct {
	calls    []trademark.Candidate
	screenFn func(c trademark.Candidate) (*trademark.Report, error)
}

func (f *fakeEngine) Screen(_ context.Context, c trademark.Candidate) (*trademark.Report, error) {
	f.calls = append(f.calls, c)
	return f.screenFn(c)
}

type published struct {
	topic, key string
	payload    interface{}
}

type fakePublisher struct {
	err  error
	sent []published
}

func (f *fakePublisher) PublishJSON(_ context.Context, topic, key string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic, key, payload})
	return nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	dropped  []string
	triggers []string
}

func (m *fakeMetrics) RecordDropped(topic, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped = append(m.dropped, topic+":"+reason)
}

func (m *fakeMetrics) RecordReport(trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, trigger)
}

func jobMessage(t *testing.T, v interface{}) *kafka.Message {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return &kafka.Message{Topic: "trademark-workers", Value: raw, Offset: 7}
}

func okReport(c trademark.Candidate) (*trademark.Report, error) {
	return &trademark.Report{
		ID:              "rep-1",
		Name:            c.Name,
		ProductCategory: c.ProductCategory,
		CreatedAt:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Results: trademark.Results{
			SameName: trademark.Succeeded(trademark.NewExactMatch("", false)),
			Tokens:   trademark.Succeeded(trademark.TokenList{Tokens: []string{c.Name}}),
		},
	}, nil
}

type ScreeningWorkerSuite struct {
	suite.Suite
	engine    *fakeEngine
	publisher *fakePublisher
	metrics   *fakeMetrics
	log       *testutil.RecordingLogger
	worker    *ScreeningWorker
}

func (s *ScreeningWorkerSuite) SetupTest() {
	s.engine = &fakeEngine{screenFn: okReport}
	s.publisher = &fakePublisher{}
	s.metrics = &fakeMetrics{}
	s.log = testutil.NewRecordingLogger()
	s.worker = NewScreeningWorker(s.engine, s.publisher, "trademark-results", s.metrics, s.log)
}

func (s *ScreeningWorkerSuite) TestPublishesResultKeyedByRequester() {
	msg := jobMessage(s.T(), trademark.ScreeningRequest{Name: "삼성", ProductName: "가전", UID: "u1", ImageURL: "http://img"})

	s.Require().NoError(s.worker.Handle(context.Background(), msg))

	s.Require().Len(s.publisher.sent, 1)
	sent := s.publisher.sent[0]
	s.Equal("trademark-results", sent.topic)
	s.Equal("u1", sent.key)
	stored, ok := sent.payload.(*trademark.StoredReport)
	s.Require().True(ok)
	s.Equal("u1", stored.RequesterID)
	s.Equal("http://img", stored.ImageURL)
	s.Equal("가전", stored.ProductCategory)
	s.Contains(string(stored.Results), "find_same_name")
	s.Equal([]string{"async"}, s.metrics.triggers)
	s.True(s.log.Has("info", "screening result published"))
}

func (s *ScreeningWorkerSuite) TestMissingProductNameScreensEmptyCategory() {
	msg := jobMessage(s.T(), map[string]string{"name": "ABC", "uid": "u1"})

	s.Require().NoError(s.worker.Handle(context.Background(), msg))
	s.Require().Len(s.engine.calls, 1)
	s.Equal("", s.engine.calls[0].ProductCategory)
	s.Len(s.publisher.sent, 1)
}

func (s *ScreeningWorkerSuite) TestDropsJobsWithoutNameOrUID() {
	for _, job := range []map[string]string{
		{"uid": "u1"},
		{"name": "ABC"},
		{"name": "  ", "uid": "u1"},
	} {
		s.Require().NoError(s.worker.Handle(context.Background(), jobMessage(s.T(), job)))
	}
	s.Empty(s.engine.calls)
	s.Empty(s.publisher.sent)
	s.Equal([]string{"trademark-workers:invalid", "trademark-workers:invalid", "trademark-workers:invalid"}, s.metrics.dropped)
	s.True(s.log.Has("warn", "screening job dropped"))
}

func (s *ScreeningWorkerSuite) TestDropsMalformedJSON() {
	msg := &kafka.Message{Topic: "trademark-workers", Value: []byte("{not json")}
	s.Require().NoError(s.worker.Handle(context.Background(), msg))
	s.Equal([]string{"trademark-workers:malformed"}, s.metrics.dropped)
}

func (s *ScreeningWorkerSuite) TestEngineFailureIsDropped() {
	s.engine.screenFn = func(trademark.Candidate) (*trademark.Report, error) {
		return nil, errors.New(errors.ErrCodeReportFailed, "boom")
	}
	msg := jobMessage(s.T(), trademark.ScreeningRequest{Name: "ABC", UID: "u1"})

	s.Require().NoError(s.worker.Handle(context.Background(), msg))
	s.Empty(s.publisher.sent)
	s.Equal([]string{"trademark-workers:screen_failed"}, s.metrics.dropped)
}

func (s *ScreeningWorkerSuite) TestPublishFailureIsReturned() {
	s.publisher.err = errors.New(errors.ErrCodeMessagingError, "broker down")
	msg := jobMessage(s.T(), trademark.ScreeningRequest{Name: "ABC", UID: "u1"})

	err := s.worker.Handle(context.Background(), msg)
	s.Require().Error(err)
	s.True(errors.IsCode(err, errors.ErrCodeMessagingError))
	s.Empty(s.metrics.triggers)
	s.True(s.log.Has("error", "failed to publish screening result"))
}

func TestScreeningWorkerSuite(t *testing.T) {
	suite.Run(t, new(ScreeningWorkerSuite))
}

type fakeSink struct {
	err error
	got []*trademark.StoredReport
}

func (f *fakeSink) HandleResult(_ context.Context, r *trademark.StoredReport) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, r)
	return nil
}

func resultMessage(key string, body string) *kafka.Message {
	return &kafka.Message{Topic: "trademark-results", Key: []byte(key), Value: []byte(body)}
}

func TestResultsWorker_StoresReport(t *testing.T) {
	sink := &fakeSink{}
	w := NewResultsWorker(sink, nil, testutil.NewRecordingLogger())

	body := `{"id":"r1","uid":"u1","name":"ABC","product_name":"","results":{"tokenize":{"tokens":["ABC"]}},"createdAt":"2026-05-01T00:00:00Z"}`
	require.NoError(t, w.Handle(context.Background(), resultMessage("u1", body)))

	require.Len(t, sink.got, 1)
	assert.Equal(t, "r1", sink.got[0].ID)
	assert.JSONEq(t, `{"tokenize":{"tokens":["ABC"]}}`, string(sink.got[0].Results))
}

func TestResultsWorker_FallsBackToKeyForRequester(t *testing.T) {
	sink := &fakeSink{}
	w := NewResultsWorker(sink, nil, testutil.NewRecordingLogger())

	require.NoError(t, w.Handle(context.Background(), resultMessage("u9", `{"name":"ABC","results":{}}`)))
	require.Len(t, sink.got, 1)
	assert.Equal(t, "u9", sink.got[0].RequesterID)
}

func TestResultsWorker_Drops(t *testing.T) {
	sink := &fakeSink{}
	m := &fakeMetrics{}
	w := NewResultsWorker(sink, m, testutil.NewRecordingLogger())

	require.NoError(t, w.Handle(context.Background(), resultMessage("", `garbage`)))
	require.NoError(t, w.Handle(context.Background(), resultMessage("", `{"name":"ABC"}`)))
	assert.Empty(t, sink.got)
	assert.Equal(t, []string{"trademark-results:malformed", "trademark-results:invalid"}, m.dropped)
}

func TestResultsWorker_StoreErrorReturned(t *testing.T) {
	sink := &fakeSink{err: errors.New(errors.ErrCodeDatabaseError, "db down")}
	log := testutil.NewRecordingLogger()
	w := NewResultsWorker(sink, nil, log)

	err := w.Handle(context.Background(), resultMessage("u1", `{"uid":"u1","results":{}}`))
	require.Error(t, err)
	assert.True(t, log.Has("error", "failed to store screening result"))
}
