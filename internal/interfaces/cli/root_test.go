package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-screening/internal/application/screening"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

const baseConfig = `
models:
  tokenizer_url: "http://models:8000"
  g2p_url: "http://models:8000"
  embedder_url: "http://models:8000"
`

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tmscreen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(baseConfig+extra), 0o600))
	return path
}

type fakeEngine struct {
	got    trademark.Candidate
	report *trademark.Report
	err    error
}

func (f *fakeEngine) Screen(_ context.Context, c trademark.Candidate) (*trademark.Report, error) {
	f.got = c
	if f.err != nil {
		return nil, f.err
	}
	r := *f.report
	r.Name = c.Name
	r.ProductCategory = c.ProductCategory
	return &r, nil
}

type fakeRecorder struct{ triggers []string }

func (f *fakeRecorder) RecordReport(trigger string) { f.triggers = append(f.triggers, trigger) }

type fakeMigrator struct {
	calls []string
	steps int
}

func (f *fakeMigrator) Up() error { f.calls = append(f.calls, "up"); return nil }
func (f *fakeMigrator) Down(steps int) error {
	f.calls = append(f.calls, "down")
	f.steps = steps
	return nil
}
func (f *fakeMigrator) Status() (uint, bool, error) { return 3, false, nil }

type fakeTopics struct {
	ensured []kafka.TopicConfig
	closed  bool
}

func (f *fakeTopics) EnsureTopics(_ context.Context, topics []kafka.TopicConfig) error {
	f.ensured = topics
	return nil
}
func (f *fakeTopics) Close() error { f.closed = true; return nil }

func sampleReport() *trademark.Report {
	return &trademark.Report{
		ID:        "rep-1",
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Results: trademark.Results{
			SameName:        trademark.Succeeded(trademark.NewExactMatch("", false)),
			SimilarNames:    trademark.Succeeded(trademark.NewSimilarNames(nil)),
			SimilarPronun:   trademark.Succeeded(trademark.NewSimilarPronunciations(nil)),
			Tokens:          trademark.Succeeded(trademark.TokenList{Tokens: []string{"꼬꼬", "치킨"}}),
			Acceptability:   trademark.Succeeded(trademark.Acceptability{}),
			Distinctiveness: trademark.Failed[float64](errors.New(errors.ErrCodeCollaboratorUnavailable, "embedder unavailable")),
		},
	}
}

type harness struct {
	engine   *fakeEngine
	recorder *fakeRecorder
	migrator *fakeMigrator
	topics   *fakeTopics
	cleaned  bool
}

func newHarness() *harness {
	return &harness{
		engine:   &fakeEngine{report: sampleReport()},
		recorder: &fakeRecorder{},
		migrator: &fakeMigrator{},
		topics:   &fakeTopics{},
	}
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Engine: func(*CLIContext) (screening.Service, ReportRecorder, func(), error) {
			return h.engine, h.recorder, func() { h.cleaned = true }, nil
		},
		Migrator: func(*CLIContext) Migrator { return h.migrator },
		Topics: func(context.Context, *CLIContext) (TopicManager, error) {
			return h.topics, nil
		},
	}
}

func run(t *testing.T, deps Dependencies, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand(Dependencies{})
	assert.Equal(t, "tmscreen", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"screen", "migrate", "topics", "version"} {
		assert.True(t, names[want], want)
	}

	for flag, def := range map[string]string{"config": "", "log-level": "warn", "output": "json", "timeout": "1m0s"} {
		f := cmd.PersistentFlags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestVersionCmd_NeedsNoConfig(t *testing.T) {
	out, err := run(t, Dependencies{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tmscreen "+Version)
}

func TestScreenCmd_JSON(t *testing.T) {
	h := newHarness()
	out, err := run(t, h.deps(), "--config", writeConfig(t, ""), "screen", "꼬꼬", "치킨", "--product", "치킨", "--uid", "u1")
	require.NoError(t, err)

	assert.Equal(t, "꼬꼬 치킨", h.engine.got.Name)
	assert.Equal(t, "치킨", h.engine.got.ProductCategory)
	assert.Equal(t, "u1", h.engine.got.RequesterID)
	assert.Equal(t, []string{"cli"}, h.recorder.triggers)
	assert.True(t, h.cleaned)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.JSONEq(t, `"rep-1"`, string(body["id"]))
	var results map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(body["results"], &results))
	assert.Equal(t, "TM_002", results["similarity_score"]["code"])
	assert.Equal(t, []interface{}{"꼬꼬", "치킨"}, results["tokenize"]["tokens"])
}

func TestScreenCmd_Table(t *testing.T) {
	h := newHarness()
	out, err := run(t, h.deps(), "--config", writeConfig(t, ""), "-o", "table", "screen", "ABC")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2+len(trademark.AllChecks))
	assert.Contains(t, lines[0], "CHECK")
	assert.Contains(t, out, "no identical mark")
	assert.Contains(t, out, "꼬꼬 치킨")
	assert.Regexp(t, `similarity_score\s+error\s+TM_002 embedder unavailable`, out)
}

func TestScreenCmd_Strict(t *testing.T) {
	h := newHarness()
	_, err := run(t, h.deps(), "--config", writeConfig(t, ""), "screen", "ABC", "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 6 checks failed")
}

func TestScreenCmd_EngineError(t *testing.T) {
	h := newHarness()
	h.engine.err = errors.New(errors.ErrCodeCandidateInvalid, "trademark name is required")
	_, err := run(t, h.deps(), "--config", writeConfig(t, ""), "screen", "ABC")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCandidateInvalid))
	assert.Empty(t, h.recorder.triggers)
}

func TestScreenCmd_RequiresName(t *testing.T) {
	_, err := run(t, newHarness().deps(), "--config", writeConfig(t, ""), "screen")
	assert.Error(t, err)
}

func TestScreenCmd_BadConfig(t *testing.T) {
	_, err := run(t, newHarness().deps(), "--config", filepath.Join(t.TempDir(), "absent.yaml"), "screen", "ABC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config initialization failed")
}

const postgresConfig = `
postgres:
  enabled: true
  host: db
  db_name: trademarks
`

func TestMigrateCmd(t *testing.T) {
	h := newHarness()
	path := writeConfig(t, postgresConfig)

	out, err := run(t, h.deps(), "--config", path, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "OK: schema is up to date")

	_, err = run(t, h.deps(), "--config", path, "migrate", "down", "--steps", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, h.migrator.steps)

	out, err = run(t, h.deps(), "--config", path, "-o", "text", "migrate", "status")
	require.NoError(t, err)
	assert.Equal(t, "version 3\n", out)

	assert.Equal(t, []string{"up", "down"}, h.migrator.calls)

	_, err = run(t, h.deps(), "--config", path, "migrate", "down", "--steps", "0")
	assert.Error(t, err)
}

func TestMigrateCmd_PostgresDisabled(t *testing.T) {
	h := newHarness()
	_, err := run(t, h.deps(), "--config", writeConfig(t, ""), "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres is not enabled")
	assert.Empty(t, h.migrator.calls)
}

func TestTopicsEnsureCmd(t *testing.T) {
	h := newHarness()
	path := writeConfig(t, "kafka:\n  enabled: true\n  brokers: [\"kafka:9092\"]\n")

	out, err := run(t, h.deps(), "--config", path, "topics", "ensure")
	require.NoError(t, err)
	require.Len(t, h.topics.ensured, 2)
	assert.Equal(t, "trademark-workers", h.topics.ensured[0].Name)
	assert.Equal(t, "trademark-results", h.topics.ensured[1].Name)
	assert.True(t, h.topics.closed)
	assert.Contains(t, out, "OK: topic trademark-results")
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"TITLE", "SCORE"}, [][]string{{"꼬꼬댁", "0.9"}, {"ABCDEF", "0.75"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "TITLE   SCORE", lines[0])
	assert.Equal(t, "------  -----", lines[1])
	assert.Equal(t, "꼬꼬댁     0.9  ", lines[2])
	assert.Equal(t, "ABCDEF  0.75 ", lines[3])

	assert.Empty(t, FormatTable(nil, nil))
}
