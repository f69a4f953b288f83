package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
	"github.com/MikeSquared-Agency/triage/internal/hermes"
	"github.com/MikeSquared-Agency/triage/internal/metrics"
	"github.com/MikeSquared-Agency/triage/internal/thread"
)

// ErrEmptyConversation is returned when a thread has no usable messages.
var ErrEmptyConversation = errors.New("conversation has no messages")

// Trigger sources, used as metric labels.
const (
	SourceNATS  = "nats"
	SourceHTTP  = "http"
	SourceCLI   = "cli"
	SourceBatch = "batch"
)

// Pipeline stages reported on failure.
const (
	StageLoad     = "load"
	StageExtract  = "extract"
	StageValidate = "validate"
	StagePersist  = "persist"
)

const handlerTimeout = 3 * time.Minute

type ThreadLoader interface {
	Load(ctx context.Context, threadID string) ([]thread.Message, error)
}

type RecordExtractor interface {
	Extract(ctx context.Context, msgs []thread.Message) (*analytics.Record, error)
}

type AnalyticsStore interface {
	SaveAnalytics(ctx context.Context, threadID, model string, rec *analytics.Record) (uuid.UUID, error)
}

type Publisher interface {
	Publish(subject string, data any) error
}

type Alerter interface {
	PostAlert(ctx context.Context, threadID string, rec *analytics.Record) error
}

// Options wires the optional collaborators. Nil fields are skipped.
type Options struct {
	Store     AnalyticsStore
	Publisher Publisher
	Alerter   Alerter
	Metrics   *metrics.ExtractionMetrics
	// Model is recorded with each stored extraction.
	Model string
	// AllowEmpty sends empty conversations to the extractor instead of
	// rejecting them.
	AllowEmpty bool
}

// Processor runs load, extract, validate, persist and publish for a thread.
type Processor struct {
	loader    ThreadLoader
	extractor RecordExtractor
	opts      Options
	logger    *slog.Logger
}

func New(loader ThreadLoader, ext RecordExtractor, opts Options, logger *slog.Logger) *Processor {
	return &Processor{loader: loader, extractor: ext, opts: opts, logger: logger}
}

// Analysis is the outcome of analyzing one thread.
type Analysis struct {
	ThreadID    string            `json:"thread_id"`
	AnalyticsID uuid.UUID         `json:"analytics_id"`
	Messages    []thread.Message  `json:"-"`
	Record      *analytics.Record `json:"record"`
}

// StageError records which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

// Stage returns the failing stage of err, or "" when err carries none.
func Stage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Analyze loads a thread and extracts its record. On a validation failure
// the returned Analysis still carries the record alongside the error.
func (p *Processor) Analyze(ctx context.Context, threadID string) (*Analysis, error) {
	start := time.Now()
	msgs, err := p.loader.Load(ctx, threadID)
	p.opts.Metrics.ObserveStage(StageLoad, time.Since(start).Seconds())
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Err: err}
	}

	a, err := p.AnalyzeMessages(ctx, msgs)
	if a != nil {
		a.ThreadID = threadID
	}
	return a, err
}

// AnalyzeMessages extracts and validates a record for an already loaded
// conversation.
func (p *Processor) AnalyzeMessages(ctx context.Context, msgs []thread.Message) (*Analysis, error) {
	if len(msgs) == 0 && !p.opts.AllowEmpty {
		return nil, &StageError{Stage: StageLoad, Err: ErrEmptyConversation}
	}

	start := time.Now()
	rec, err := p.extractor.Extract(ctx, msgs)
	p.opts.Metrics.ObserveStage(StageExtract, time.Since(start).Seconds())
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Err: err}
	}

	a := &Analysis{Messages: msgs, Record: rec}
	if err := rec.Validate(); err != nil {
		return a, &StageError{Stage: StageValidate, Err: err}
	}
	return a, nil
}

// Process analyzes a thread, stores the record, publishes the outcome and
// raises an alert when the conversation needs attention.
func (p *Processor) Process(ctx context.Context, threadID, source string) (*Analysis, error) {
	log := p.logger.With("thread_id", threadID, "source", source)
	log.Info("processing thread")

	a, err := p.Analyze(ctx, threadID)
	if err == nil {
		err = p.persist(ctx, a)
	}
	if err != nil {
		stage := Stage(err)
		log.Error("thread processing failed", "stage", stage, "error", err)
		p.opts.Metrics.ObserveAnalysis(source, stage+"_failed")
		p.publish(hermes.SubjectAnalyticsFailed, hermes.AnalyticsFailedEvent{
			ThreadID: threadID,
			Stage:    stage,
			Error:    err.Error(),
			FailedAt: time.Now().UTC(),
		})
		return a, fmt.Errorf("process thread %s: %w", threadID, err)
	}

	rec := a.Record
	p.opts.Metrics.ObserveAnalysis(source, "ok")
	p.opts.Metrics.ObserveOutcome(string(rec.RequestType), string(rec.ResolutionStatus), rec.SatisfactionScore)

	evt := hermes.AnalyticsExtractedEvent{
		ThreadID:       threadID,
		Model:          p.opts.Model,
		NeedsAttention: rec.NeedsAttention(),
		ExtractedAt:    time.Now().UTC(),
		Record:         rec,
	}
	if a.AnalyticsID != uuid.Nil {
		evt.AnalyticsID = a.AnalyticsID.String()
	}
	p.publish(hermes.SubjectAnalyticsExtracted, evt)

	if rec.NeedsAttention() && p.opts.Alerter != nil {
		if err := p.opts.Alerter.PostAlert(ctx, threadID, rec); err != nil {
			log.Error("alert post failed", "error", err)
		}
	}

	log.Info("thread processed",
		"analytics_id", evt.AnalyticsID,
		"resolution_status", string(rec.ResolutionStatus),
		"needs_attention", evt.NeedsAttention,
	)
	return a, nil
}

// HandleThreadCompleted is the NATS handler for helpdesk.thread.completed.
func (p *Processor) HandleThreadCompleted(subject string, data []byte) {
	evt, err := hermes.ParseThreadCompleted(data)
	if err != nil {
		p.logger.Warn("ignoring malformed event", "subject", subject, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	// Failures are already logged and published by Process.
	_, _ = p.Process(ctx, evt.ThreadID, SourceNATS)
}

func (p *Processor) persist(ctx context.Context, a *Analysis) error {
	if p.opts.Store == nil {
		return nil
	}
	start := time.Now()
	id, err := p.opts.Store.SaveAnalytics(ctx, a.ThreadID, p.opts.Model, a.Record)
	p.opts.Metrics.ObserveStage(StagePersist, time.Since(start).Seconds())
	if err != nil {
		return &StageError{Stage: StagePersist, Err: err}
	}
	a.AnalyticsID = id
	return nil
}

func (p *Processor) publish(subject string, data any) {
	if p.opts.Publisher == nil {
		return
	}
	if err := p.opts.Publisher.Publish(subject, data); err != nil {
		p.logger.Error("event publish failed", "subject", subject, "error", err)
	}
}
