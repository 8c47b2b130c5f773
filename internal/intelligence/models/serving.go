// Package models holds the HTTP clients for the model-serving endpoints the
// screening engine consumes: tokenizer, transliteration, grapheme-to-IPA and
// sentence embedding.
package models

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

var (
	ErrClientClosed = errors.New(errors.ErrCodeServiceUnavailable, "model client is closed")
	ErrEmptyBaseURL = errors.New(errors.ErrCodeValidation, "model base URL cannot be empty")
)

const (
	healthPath      = "/healthz"
	maxErrorPreview = 512
)

// ServingClient posts JSON to one model-serving endpoint.
type ServingClient struct {
	name    string
	baseURL string
	http    *http.Client
	logger  logging.Logger

	mu     sync.RWMutex
	closed bool
}

// NewServingClient builds a client for the service named name at baseURL.
// The timeout bounds every call; callers may set a tighter deadline on ctx.
func NewServingClient(name, baseURL string, cfg config.ModelsConfig, logger logging.Logger) (*ServingClient, error) {
	if baseURL == "" {
		return nil, ErrEmptyBaseURL.WithDetail(name)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.MaxIdleConns
		transport.MaxIdleConnsPerHost = cfg.MaxIdleConns
	}
	return &ServingClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: transport, Timeout: cfg.Timeout},
		logger:  logger.With(logging.String("model", name)),
	}, nil
}

// Name returns the collaborator name used in errors and logs.
func (c *ServingClient) Name() string { return c.name }

// Predict posts in to path and decodes the response into out.
func (c *ServingClient) Predict(ctx context.Context, path string, in, out interface{}) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal "+c.name+" request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build "+c.name+" request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode "+c.name+" response")
	}
	return nil
}

// Healthy probes GET /healthz.
func (c *ServingClient) Healthy(ctx context.Context) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build health request")
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Close releases idle connections. Further calls fail with ErrClientClosed.
func (c *ServingClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.http.CloseIdleConnections()
	return nil
}

func (c *ServingClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || isTimeout(err) {
			return nil, errors.Wrap(err, errors.ErrCodeCollaboratorTimeout, c.name+" timed out")
		}
		return nil, errors.Unavailable(c.name, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorPreview))
		c.logger.Warn("model call failed",
			logging.String("path", req.URL.Path),
			logging.Int("status", resp.StatusCode))
		return nil, errors.Unavailable(c.name,
			errors.New(errors.ErrCodeExternalService, fmt.Sprintf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))))
	}
	return resp, nil
}

func (c *ServingClient) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	var t timeout
	return stderrors.As(err, &t) && t.Timeout()
}
