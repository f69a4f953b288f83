package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
	"github.com/MikeSquared-Agency/triage/internal/batch"
	"github.com/MikeSquared-Agency/triage/internal/config"
	"github.com/MikeSquared-Agency/triage/internal/extractor"
	"github.com/MikeSquared-Agency/triage/internal/metrics"
	"github.com/MikeSquared-Agency/triage/internal/processor"
	"github.com/MikeSquared-Agency/triage/internal/store"
	"github.com/MikeSquared-Agency/triage/internal/thread"
)

// parseArgs parses flags that may appear before or after positional
// arguments, returning the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func oneArg(fs *flag.FlagSet, args []string, name string) (string, error) {
	pos, err := parseArgs(fs, args)
	if err != nil {
		return "", err
	}
	if len(pos) != 1 {
		return "", fmt.Errorf("%s: expected exactly one <%s>", fs.Name(), name)
	}
	return pos[0], nil
}

// runThread fetches a thread, saves it as JSONL and prints it.
func runThread(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("thread", flag.ContinueOnError)
	out := fs.String("o", "conversation_thread.jsonl", "output JSONL file, .gz compresses, empty skips saving")
	asJSON := fs.Bool("json", true, "also print the messages as a JSON array")
	threadID, err := oneArg(fs, args, "thread-id")
	if err != nil {
		return err
	}

	if err := cfg.RequireThreadStore(); err != nil {
		return err
	}
	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Extracting messages from thread: %s\n", threadID)
	msgs, err := loader.Load(ctx, threadID)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := thread.SaveJSONL(*out, msgs); err != nil {
			return err
		}
		slog.Info("thread saved", "thread_id", threadID, "path", *out, "messages", len(msgs))
	}

	fmt.Fprintf(os.Stdout, "\nTotal messages extracted: %d\n", len(msgs))
	thread.PrintConversation(os.Stdout, msgs)
	if *asJSON {
		thread.PrintSection(os.Stdout, "JSON OUTPUT")
		if msgs == nil {
			msgs = []thread.Message{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(msgs); err != nil {
			return fmt.Errorf("encode messages: %w", err)
		}
	}
	return nil
}

// runExtract analyzes one thread, or a saved JSONL conversation with -i,
// and writes the record as JSON.
func runExtract(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	out := fs.String("o", "structured_output.json", "output JSON file, empty skips saving")
	in := fs.String("i", "", "read messages from a JSONL file instead of the thread store")
	allowEmpty := fs.Bool("allow-empty", false, "send empty conversations to the model")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if (*in == "" && len(pos) != 1) || (*in != "" && len(pos) > 1) {
		return errors.New("extract: expected <thread-id> or -i <messages.jsonl>")
	}

	if err := cfg.RequireExtraction(); err != nil {
		return err
	}
	llm := newCompletionClient(cfg)
	ext := extractor.New(llm, slog.Default())
	opts := processor.Options{Model: llm.Deployment(), AllowEmpty: *allowEmpty}

	var a *processor.Analysis
	if *in != "" {
		msgs, err := thread.LoadJSONL(*in)
		if err != nil {
			return err
		}
		a, err = processor.New(nil, ext, opts, slog.Default()).AnalyzeMessages(ctx, msgs)
		if a != nil && len(pos) == 1 {
			a.ThreadID = pos[0]
		}
		err = saveRecord(a, *out, err)
		if err != nil {
			return err
		}
	} else {
		if err := cfg.RequireThreadStore(); err != nil {
			return err
		}
		loader, err := newLoader(cfg)
		if err != nil {
			return err
		}
		a, err = processor.New(loader, ext, opts, slog.Default()).Analyze(ctx, pos[0])
		if err = saveRecord(a, *out, err); err != nil {
			return err
		}
	}

	return analytics.WriteJSON(os.Stdout, a.Record)
}

// saveRecord writes the record even when validation failed so the raw model
// output can be inspected, then passes through the analysis error.
func saveRecord(a *processor.Analysis, path string, analyzeErr error) error {
	if a == nil || a.Record == nil || path == "" {
		return analyzeErr
	}
	if err := analytics.SaveJSON(path, a.Record); err != nil {
		return errors.Join(analyzeErr, err)
	}
	slog.Info("structured data saved", "path", path, "thread_id", a.ThreadID)
	return analyzeErr
}

// runBatch analyzes every thread listed in a file. Records are persisted
// when DATABASE_URL is set.
func runBatch(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	outDir := fs.String("out", "", "directory for per-thread {id}.json and {id}.jsonl files")
	statePath := fs.String("state", cfg.BatchState, "resumable progress file")
	gz := fs.Bool("gzip", false, "gzip message dumps")
	batchSize := fs.Int("batch-size", 20, "threads per batch before pausing")
	pause := fs.Duration("pause", 0, "pause between batches")
	idsFile, err := oneArg(fs, args, "ids-file")
	if err != nil {
		return err
	}

	if err := cfg.RequireExtraction(); err != nil {
		return err
	}
	if err := cfg.RequireThreadStore(); err != nil {
		return err
	}

	ids, err := batch.LoadThreadIDs(idsFile)
	if err != nil {
		return err
	}

	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}
	llm := newCompletionClient(cfg)
	ext := extractor.New(llm, slog.Default())

	opts := processor.Options{
		Metrics: metrics.NewExtractionMetrics(nil),
		Model:   llm.Deployment(),
	}
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		opts.Store = db
	}

	// The poster serves both per-thread alerts and the run summary. A nil
	// *slack.Poster must not reach the interface fields.
	var notifier batch.Notifier
	if poster := newSlackPoster(cfg); poster != nil {
		opts.Alerter = poster
		notifier = poster
	}

	proc := processor.New(loader, ext, opts, slog.Default())
	runner := batch.NewRunner(batch.Config{
		StatePath: *statePath,
		OutDir:    *outDir,
		Gzip:      *gz,
		BatchSize: *batchSize,
		Pause:     *pause,
	}, proc, notifier, slog.Default())

	start := time.Now()
	report, err := runner.Run(ctx, ids)
	if report != nil {
		batch.PrintSummary(os.Stdout, report, *statePath)
		slog.Info("batch finished", "elapsed", time.Since(start).Round(time.Second).String())
	}
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d threads failed", report.Failed, report.Total-report.Skipped)
	}
	return nil
}
