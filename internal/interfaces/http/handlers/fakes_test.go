package handlers

import (
	"context"
	"sync"

	"github.com/turtacn/trademark-screening/internal/application/submission"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
)

type fakeEngine struct {
	screenFn func(ctx context.Context, c trademark.Candidate) (*trademark.Report, error)
}

func (f *fakeEngine) Screen(ctx context.Context, c trademark.Candidate) (*trademark.Report, error) {
	return f.screenFn(ctx, c)
}

type fakeSubmission struct {
	submitFn    func(ctx context.Context, in *submission.SubmitInput) (*submission.Accepted, error)
	historyFn   func(ctx context.Context, uid string) ([]*trademark.StoredReport, error)
	subscribeFn func(ctx context.Context, uid string) (<-chan []byte, error)
}

func (f *fakeSubmission) Submit(ctx context.Context, in *submission.SubmitInput) (*submission.Accepted, error) {
	return f.submitFn(ctx, in)
}

func (f *fakeSubmission) HandleResult(context.Context, *trademark.StoredReport) error { return nil }

func (f *fakeSubmission) History(ctx context.Context, uid string) ([]*trademark.StoredReport, error) {
	return f.historyFn(ctx, uid)
}

func (f *fakeSubmission) Subscribe(ctx context.Context, uid string) (<-chan []byte, error) {
	return f.subscribeFn(ctx, uid)
}

type fakeMetrics struct {
	mu       sync.Mutex
	triggers []string
	health   map[string]bool
	open     int
	opened   int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{health: map[string]bool{}} }

func (m *fakeMetrics) RecordReport(trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, trigger)
}

func (m *fakeMetrics) RecordHealth(component string, healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health[component] = healthy
}

func (m *fakeMetrics) StreamOpened() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open++
	m.opened++
}

func (m *fakeMetrics) StreamClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open--
}

func (m *fakeMetrics) snapshot() (open, opened int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open, m.opened
}
