package batch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
	"github.com/MikeSquared-Agency/triage/internal/analytics/analyticstest"
	"github.com/MikeSquared-Agency/triage/internal/processor"
	"github.com/MikeSquared-Agency/triage/internal/thread"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProcessor struct {
	results map[string]*analytics.Record
	fail    map[string]error
	calls   []string
	onCall  func(id string)
}

func (f *fakeProcessor) Process(_ context.Context, threadID, source string) (*processor.Analysis, error) {
	f.calls = append(f.calls, threadID)
	if f.onCall != nil {
		f.onCall(threadID)
	}
	if err := f.fail[threadID]; err != nil {
		return nil, err
	}
	return &processor.Analysis{
		ThreadID: threadID,
		Messages: []thread.Message{{Role: thread.RoleUser, Content: "help"}},
		Record:   f.results[threadID],
	}, nil
}

type fakeNotifier struct {
	texts []string
}

func (f *fakeNotifier) PostThread(_ context.Context, threadTS, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func newFake() *fakeProcessor {
	return &fakeProcessor{
		results: map[string]*analytics.Record{
			"t_ok":     analyticstest.ResolvedPrinterIncident(),
			"t_silent": analyticstest.SilentBot(),
		},
		fail: map[string]error{
			"t_bad": errors.New("load: thread not found"),
		},
	}
}

func TestReadThreadIDs(t *testing.T) {
	in := "# exported 2026-10-01\nt_1\n\n  t_2  \nt_1\n#t_3\n"
	ids, err := ReadThreadIDs(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"t_1", "t_2"}, ids)
}

func TestRun_ProcessesAndRecordsState(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	outDir := filepath.Join(dir, "out")
	proc := newFake()
	notifier := &fakeNotifier{}

	r := NewRunner(Config{StatePath: statePath, OutDir: outDir}, proc, notifier, discardLogger())
	report, err := r.Run(context.Background(), []string{"t_ok", "t_silent", "t_bad"})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.NeedsAttention)

	state, err := LoadState(statePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"t_ok", "t_silent"}, state.Processed)
	assert.Equal(t, 0, state.Remaining)
	require.Len(t, state.Errors, 1)
	assert.Contains(t, state.Errors[0], "t_bad")

	rec, err := analytics.LoadJSON(filepath.Join(outDir, "t_silent.json"))
	require.NoError(t, err)
	assert.Equal(t, analytics.StatusBotFailure, rec.ResolutionStatus)

	msgs, err := thread.LoadJSONL(filepath.Join(outDir, "t_ok.jsonl"))
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	_, err = os.Stat(filepath.Join(outDir, "t_bad.json"))
	assert.True(t, os.IsNotExist(err))

	require.Len(t, notifier.texts, 1)
	assert.Contains(t, notifier.texts[0], "2 analyzed, 1 failed, 1 need attention")
}

func TestRun_ResumesSkippingProcessed(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	proc := newFake()

	r := NewRunner(Config{StatePath: statePath}, proc, nil, discardLogger())
	_, err := r.Run(context.Background(), []string{"t_ok", "t_bad"})
	require.NoError(t, err)

	proc.calls = nil
	delete(proc.fail, "t_bad")
	proc.results["t_bad"] = analyticstest.ResolvedPrinterIncident()

	report, err := r.Run(context.Background(), []string{"t_ok", "t_bad"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t_bad"}, proc.calls, "failed threads are retried, finished ones skipped")
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Succeeded)
}

func TestRun_GzipOutputs(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(Config{StatePath: filepath.Join(dir, "state.json"), OutDir: dir, Gzip: true},
		newFake(), nil, discardLogger())

	_, err := r.Run(context.Background(), []string{"t_ok"})
	require.NoError(t, err)

	msgs, err := thread.LoadJSONL(filepath.Join(dir, "t_ok.jsonl.gz"))
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestRun_StopsOnCancel(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	ctx, cancel := context.WithCancel(context.Background())
	proc := newFake()
	proc.onCall = func(string) { cancel() }

	r := NewRunner(Config{StatePath: statePath}, proc, nil, discardLogger())
	report, err := r.Run(ctx, []string{"t_ok", "t_silent"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"t_ok"}, proc.calls)
	assert.Equal(t, 1, report.Succeeded)

	state, err := LoadState(statePath)
	require.NoError(t, err)
	assert.True(t, state.IsProcessed("t_ok"))
	assert.False(t, state.IsProcessed("t_silent"))
}

func TestFormatSlackSummary(t *testing.T) {
	report := &Report{
		Succeeded:      2,
		Failed:         1,
		NeedsAttention: 1,
		Threads: []ThreadSummary{
			{ThreadID: "t_ok", RequestType: analytics.RequestIncident, Status: analytics.StatusResolvedByBot},
			{ThreadID: "t_silent", RequestType: analytics.RequestIncident, Status: analytics.StatusBotFailure, NeedsAttention: true},
			{ThreadID: "t_bad", Err: errors.New("boom")},
		},
	}

	text := FormatSlackSummary(report)
	checks := []string{
		"*Triage Batch Summary*",
		"*bot_failure* (1)",
		"`t_silent` incident :warning:",
		"*resolved_by_bot* (1)",
		"*failed* (1)",
		"`t_bad` boom",
	}
	for _, check := range checks {
		assert.Contains(t, text, check)
	}
	assert.Less(t, strings.Index(text, "bot_failure"), strings.Index(text, "resolved_by_bot"))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &Report{Total: 3, Skipped: 1, Succeeded: 1, Failed: 1}, "/tmp/state.json")
	out := buf.String()
	assert.Contains(t, out, "=== Batch Summary ===")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "State file: /tmp/state.json")
}
