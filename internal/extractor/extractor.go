// Package extractor turns a helpdesk transcript into an analytics record by
// asking the completion service for schema-constrained output.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
	"github.com/MikeSquared-Agency/triage/internal/azureopenai"
	"github.com/MikeSquared-Agency/triage/internal/thread"
)

// ErrExtraction wraps every failure to obtain a record from the model.
var ErrExtraction = errors.New("structured extraction failed")

// Completer is the completion service. *azureopenai.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string, schema azureopenai.JSONSchema) (string, error)
}

type Extractor struct {
	llm    Completer
	logger *slog.Logger
}

func New(llm Completer, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, logger: logger}
}

// RenderTranscript formats messages as "ROLE: content" lines.
func RenderTranscript(msgs []thread.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = strings.ToUpper(string(m.Role)) + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

// UserPrompt embeds the rendered transcript in the analysis instructions.
func UserPrompt(msgs []thread.Message) string {
	return fmt.Sprintf(userPromptTemplate, RenderTranscript(msgs))
}

// Extract makes one completion call and parses the reply into a Record. The
// record is not validated here; callers run Record.Validate.
func (e *Extractor) Extract(ctx context.Context, msgs []thread.Message) (*analytics.Record, error) {
	schema, err := analytics.Schema()
	if err != nil {
		return nil, fmt.Errorf("%w: build schema: %w", ErrExtraction, err)
	}

	e.logger.Info("extracting analytics from transcript", "messages", len(msgs))

	raw, err := e.llm.Complete(ctx, systemPrompt, UserPrompt(msgs), azureopenai.JSONSchema{
		Name:        analytics.SchemaName,
		Description: "Structured analytics for one IT helpdesk conversation",
		Schema:      schema,
	})
	if err != nil {
		e.logger.Error("completion failed", "error", err)
		return nil, fmt.Errorf("%w: llm: %w", ErrExtraction, err)
	}

	rec, err := analytics.ReadJSON(bytes.NewReader([]byte(raw)))
	if err != nil {
		e.logger.Error("failed to parse extraction response", "error", err, "raw", raw)
		return nil, fmt.Errorf("%w: parse: %w", ErrExtraction, err)
	}

	e.logger.Info("extraction complete",
		"request_type", string(rec.RequestType),
		"resolution_status", string(rec.ResolutionStatus),
		"satisfaction_score", rec.SatisfactionScore,
		"quality_score", rec.QualityScore,
	)
	return rec, nil
}
