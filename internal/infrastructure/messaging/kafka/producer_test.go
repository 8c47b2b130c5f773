package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closeFunc func() error
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockKafkaWriter) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockKafkaWriter) Stats() kafka.WriterStats { return kafka.WriterStats{} }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newTestProducer(w WriterInterface) *Producer {
	return &Producer{
		writer:  w,
		config:  ProducerConfig{Brokers: []string{"localhost:9092"}, MaxMessageBytes: 1024},
		logger:  logging.NewNopLogger(),
		metrics: &ProducerMetrics{},
		dial: func(ctx context.Context, network, address string) (io.Closer, error) {
			return nopCloser{}, nil
		},
	}
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}))
}

func TestProducerConfigFrom(t *testing.T) {
	cfg := ProducerConfigFrom(config.KafkaConfig{Brokers: []string{"b:9092"}, WriteTimeout: 3 * time.Second})
	assert.Equal(t, []string{"b:9092"}, cfg.Brokers)
	assert.Equal(t, "all", cfg.Acks)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
}

func TestPublish_Success(t *testing.T) {
	var captured []kafka.Message
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		captured = msgs
		return nil
	}})

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "trademark-results", Key: []byte("u1"), Value: []byte("v")})
	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, "trademark-results", captured[0].Topic)
	assert.Equal(t, "u1", string(captured[0].Key))
	assert.False(t, captured[0].Time.IsZero())
	m := p.GetMetrics()
	assert.Equal(t, int64(1), m.MessagesSent.Load())
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.True(t, errors.IsCode(p.Publish(ctx, &ProducerMessage{Value: []byte("v")}), errors.ErrCodeValidation))
	assert.True(t, errors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t"}), errors.ErrCodeValidation))
	big := []byte(strings.Repeat("x", 2048))
	assert.True(t, errors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t", Value: big}), errors.ErrCodeValidation))
}

func TestPublish_Failure(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return stderrors.New("write failed")
	}})
	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMessagingError))
	m := p.GetMetrics()
	assert.Equal(t, int64(1), m.MessagesFailed.Load())
}

func TestPublishJSON(t *testing.T) {
	var captured kafka.Message
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		captured = msgs[0]
		return nil
	}})

	payload := map[string]string{"uid": "u1", "name": "Acme"}
	require.NoError(t, p.PublishJSON(context.Background(), "trademark-workers", "u1", payload))

	var got map[string]string
	require.NoError(t, json.Unmarshal(captured.Value, &got))
	assert.Equal(t, payload, got)
	assert.Equal(t, "u1", string(captured.Key))

	headers := map[string]string{}
	for _, h := range captured.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.NotEmpty(t, headers[HeaderMessageID])
	assert.Equal(t, "tmscreen", headers[HeaderSource])
}

func TestProducer_HealthCheck(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	assert.NoError(t, p.HealthCheck(context.Background()))

	p.dial = func(ctx context.Context, network, address string) (io.Closer, error) {
		return nil, stderrors.New("refused")
	}
	assert.True(t, errors.IsCode(p.HealthCheck(context.Background()), errors.ErrCodeMessagingError))
}

func TestProducer_Close(t *testing.T) {
	closed := 0
	p := newTestProducer(&mockKafkaWriter{closeFunc: func() error {
		closed++
		return nil
	}})
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, closed)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.Equal(t, ErrProducerClosed, err)
	assert.Equal(t, ErrProducerClosed, p.HealthCheck(context.Background()))
}
