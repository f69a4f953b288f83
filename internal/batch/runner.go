package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
	"github.com/MikeSquared-Agency/triage/internal/processor"
	"github.com/MikeSquared-Agency/triage/internal/thread"
)

// Config holds the batch command configuration.
type Config struct {
	StatePath string
	OutDir    string // optional: write {id}.json and {id}.jsonl per thread
	Gzip      bool   // compress message dumps as {id}.jsonl.gz
	BatchSize int    // pause after this many threads, 0 disables pausing
	Pause     time.Duration
}

type ThreadProcessor interface {
	Process(ctx context.Context, threadID, source string) (*processor.Analysis, error)
}

// Notifier receives the run summary. Slack's PostThread with an empty
// thread timestamp posts a standalone message.
type Notifier interface {
	PostThread(ctx context.Context, threadTS, text string) error
}

// ThreadSummary is the outcome of one thread in a run.
type ThreadSummary struct {
	ThreadID       string
	RequestType    analytics.RequestType
	Status         analytics.ResolutionStatus
	NeedsAttention bool
	Err            error
}

// Report summarizes a completed or interrupted run.
type Report struct {
	Total          int
	Skipped        int
	Succeeded      int
	Failed         int
	NeedsAttention int
	Threads        []ThreadSummary
}

// Runner analyzes a list of threads sequentially, saving resumable state
// after every thread.
type Runner struct {
	cfg      Config
	proc     ThreadProcessor
	notifier Notifier
	logger   *slog.Logger
}

func NewRunner(cfg Config, proc ThreadProcessor, notifier Notifier, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, proc: proc, notifier: notifier, logger: logger}
}

// Run processes every id not already recorded in the state file. Failed
// threads are not marked processed, so a rerun retries them.
func (r *Runner) Run(ctx context.Context, ids []string) (*Report, error) {
	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	if r.cfg.OutDir != "" {
		if err := os.MkdirAll(r.cfg.OutDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	report := &Report{Total: len(ids)}
	var pending []string
	for _, id := range ids {
		if state.IsProcessed(id) {
			report.Skipped++
			continue
		}
		pending = append(pending, id)
	}
	state.Remaining = len(pending)

	r.logger.Info("threads to process",
		"total", len(ids),
		"pending", len(pending),
		"already_processed", report.Skipped,
	)

	inBatch := 0
	for _, id := range pending {
		select {
		case <-ctx.Done():
			r.logger.Info("batch interrupted, saving state")
			_ = state.Save()
			r.postSummary(context.WithoutCancel(ctx), report)
			return report, ctx.Err()
		default:
		}

		ts := r.processOne(ctx, id)
		report.Threads = append(report.Threads, ts)

		if ts.Err != nil {
			report.Failed++
			state.Failed++
			state.AddError(fmt.Sprintf("%s: %v", id, ts.Err))
		} else {
			report.Succeeded++
			state.Succeeded++
			state.MarkProcessed(id)
			if ts.NeedsAttention {
				report.NeedsAttention++
				state.NeedsAttention++
			}
		}
		state.Remaining--
		if err := state.Save(); err != nil {
			r.logger.Warn("failed to save state", "path", r.cfg.StatePath, "error", err)
		}

		inBatch++
		if r.cfg.BatchSize > 0 && inBatch >= r.cfg.BatchSize && r.cfg.Pause > 0 {
			r.logger.Info("batch complete, pausing", "threads_in_batch", inBatch, "pause", r.cfg.Pause)
			inBatch = 0
			select {
			case <-ctx.Done():
				r.postSummary(context.WithoutCancel(ctx), report)
				return report, ctx.Err()
			case <-time.After(r.cfg.Pause):
			}
		}
	}

	r.postSummary(ctx, report)

	r.logger.Info("batch complete",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"needs_attention", report.NeedsAttention,
	)
	return report, nil
}

func (r *Runner) processOne(ctx context.Context, threadID string) ThreadSummary {
	ts := ThreadSummary{ThreadID: threadID}

	a, err := r.proc.Process(ctx, threadID, processor.SourceBatch)
	if a != nil {
		if a.Record != nil {
			ts.RequestType = a.Record.RequestType
			ts.Status = a.Record.ResolutionStatus
			ts.NeedsAttention = a.Record.NeedsAttention()
		}
		if werr := r.writeOutputs(a); werr != nil {
			r.logger.Warn("failed to write outputs", "thread_id", threadID, "error", werr)
			if err == nil {
				err = werr
			}
		}
	}
	ts.Err = err
	return ts
}

func (r *Runner) writeOutputs(a *processor.Analysis) error {
	if r.cfg.OutDir == "" {
		return nil
	}
	base := filepath.Join(r.cfg.OutDir, a.ThreadID)

	if a.Record != nil {
		if err := analytics.SaveJSON(base+".json", a.Record); err != nil {
			return err
		}
	}
	if len(a.Messages) > 0 {
		path := base + ".jsonl"
		if r.cfg.Gzip {
			path += ".gz"
		}
		if err := thread.SaveJSONL(path, a.Messages); err != nil {
			return err
		}
	}
	return nil
}

// postSummary sends the run summary to the notifier, or logs it when none
// is configured.
func (r *Runner) postSummary(ctx context.Context, report *Report) {
	if len(report.Threads) == 0 {
		return
	}

	text := FormatSlackSummary(report)

	if r.notifier == nil {
		r.logger.Info("batch summary (no Slack configured)", "summary", text)
		return
	}
	if err := r.notifier.PostThread(ctx, "", text); err != nil {
		r.logger.Warn("failed to post batch summary to Slack, logging instead",
			"error", err,
			"summary", text,
		)
	}
}

// FormatSlackSummary groups processed threads by resolution status.
func FormatSlackSummary(report *Report) string {
	byStatus := make(map[string][]ThreadSummary)
	var failed []ThreadSummary
	for _, t := range report.Threads {
		if t.Err != nil {
			failed = append(failed, t)
			continue
		}
		byStatus[string(t.Status)] = append(byStatus[string(t.Status)], t)
	}

	statuses := make([]string, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	var sb strings.Builder
	sb.WriteString("*Triage Batch Summary*\n")
	fmt.Fprintf(&sb, "%d analyzed, %d failed, %d need attention\n",
		report.Succeeded, report.Failed, report.NeedsAttention)

	for _, s := range statuses {
		fmt.Fprintf(&sb, "\n*%s* (%d)\n", s, len(byStatus[s]))
		for _, t := range byStatus[s] {
			marker := ""
			if t.NeedsAttention {
				marker = " :warning:"
			}
			fmt.Fprintf(&sb, "  • `%s` %s%s\n", t.ThreadID, t.RequestType, marker)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(&sb, "\n*failed* (%d)\n", len(failed))
		for _, t := range failed {
			fmt.Fprintf(&sb, "  • `%s` %v\n", t.ThreadID, t.Err)
		}
	}

	return strings.TrimSpace(sb.String())
}

// PrintSummary writes the plain-text end-of-run summary.
func PrintSummary(w io.Writer, report *Report, statePath string) {
	fmt.Fprintf(w, "\n=== Batch Summary ===\n")
	fmt.Fprintf(w, "Threads listed: %d\n", report.Total)
	fmt.Fprintf(w, "Already processed: %d\n", report.Skipped)
	fmt.Fprintf(w, "Succeeded: %d\n", report.Succeeded)
	fmt.Fprintf(w, "Failed: %d\n", report.Failed)
	fmt.Fprintf(w, "Needs attention: %d\n", report.NeedsAttention)
	fmt.Fprintf(w, "State file: %s\n", statePath)
}
