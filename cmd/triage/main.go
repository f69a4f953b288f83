package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/triage/internal/api"
	"github.com/MikeSquared-Agency/triage/internal/azureopenai"
	"github.com/MikeSquared-Agency/triage/internal/config"
	"github.com/MikeSquared-Agency/triage/internal/extractor"
	"github.com/MikeSquared-Agency/triage/internal/foundry"
	"github.com/MikeSquared-Agency/triage/internal/hermes"
	"github.com/MikeSquared-Agency/triage/internal/metrics"
	"github.com/MikeSquared-Agency/triage/internal/processor"
	"github.com/MikeSquared-Agency/triage/internal/slack"
	"github.com/MikeSquared-Agency/triage/internal/store"
	"github.com/MikeSquared-Agency/triage/internal/thread"
)

const usage = `usage: triage <command> [flags]

commands:
  thread <thread-id> [-o file]                 fetch a thread and save it as JSONL
  extract <thread-id> [-o file] [-i file]      extract conversation analytics
  batch <ids-file> [-out dir]                  analyze a list of threads, resumable
  serve                                        run the event-driven service
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "serve" {
		setupLogging(cfg.LogLevel, os.Stdout)
		if err := runServe(cfg); err != nil {
			slog.Error("triage stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	// CLI commands keep stdout for their output.
	setupLogging(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "thread":
		err = runThread(ctx, cfg, args)
	case "extract":
		err = runExtract(ctx, cfg, args)
	case "batch":
		err = runBatch(ctx, cfg, args)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func runServe(cfg config.Config) error {
	if err := cfg.RequireService(); err != nil {
		return err
	}

	slog.Info("triage starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	slog.Info("database connected")

	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}
	llm := newCompletionClient(cfg)
	slog.Info("completion client ready", "deployment", llm.Deployment())
	ext := extractor.New(llm, slog.Default())

	// NATS/Hermes
	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	hermesClient, err := hermes.NewClient(connectCtx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	connectCancel()
	if err != nil {
		return fmt.Errorf("connect NATS: %w", err)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	opts := processor.Options{
		Store:     db,
		Publisher: hermesClient,
		Metrics:   metrics.NewExtractionMetrics(nil),
		Model:     llm.Deployment(),
	}
	// Slack is optional; without it alerts are only published on the bus.
	if poster := newSlackPoster(cfg); poster != nil {
		opts.Alerter = poster
		slog.Info("slack alerts ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, alerts go to NATS only")
	}

	proc := processor.New(loader, ext, opts, slog.Default())

	if err := hermesClient.QueueSubscribe(hermes.SubjectThreadCompleted, hermes.QueueTriage, proc.HandleThreadCompleted); err != nil {
		return fmt.Errorf("subscribe to thread events: %w", err)
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, api.Deps{
		Analyzer:  proc,
		Loader:    loader,
		Analytics: db,
		Bus:       hermesClient,
		Model:     llm.Deployment(),
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Announce registration
	if err := hermesClient.Publish(hermes.SubjectAgentRegistered, map[string]any{
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"port":       cfg.Port,
		"deployment": llm.Deployment(),
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("triage ready", "port", cfg.Port, "subject", hermes.SubjectThreadCompleted)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("http shutdown", "error", err)
	}
	cancel()
	slog.Info("triage stopped")
	return nil
}

func newLoader(cfg config.Config) (*thread.Loader, error) {
	client, err := foundry.NewDefaultClient(cfg.ProjectEndpoint, cfg.FoundryAPIVersion)
	if err != nil {
		return nil, fmt.Errorf("create thread store client: %w", err)
	}
	return thread.NewLoader(client, slog.Default()), nil
}

func newCompletionClient(cfg config.Config) *azureopenai.Client {
	llm := azureopenai.NewClient(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIAPIVersion, cfg.ModelDeployment)
	llm.SetMaxCompletionTokens(cfg.MaxCompletionTokens)
	return llm
}

func newSlackPoster(cfg config.Config) *slack.Poster {
	if cfg.SlackBotToken == "" || cfg.SlackChannel == "" {
		return nil
	}
	return slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
}

func setupLogging(level string, w io.Writer) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
