package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrRetrieval wraps any failure of the conversation store.
var ErrRetrieval = errors.New("thread retrieval failed")

// Source lists the raw messages of a thread, newest first.
type Source interface {
	ListMessages(ctx context.Context, threadID string) ([]RawMessage, error)
}

// Loader turns stored threads into chronological message lists.
type Loader struct {
	source Source
	logger *slog.Logger
}

func NewLoader(source Source, logger *slog.Logger) *Loader {
	return &Loader{source: source, logger: logger}
}

// Load fetches a thread and returns its messages oldest first, dropping
// messages without text content.
func (l *Loader) Load(ctx context.Context, threadID string) ([]Message, error) {
	raw, err := l.source.ListMessages(ctx, threadID)
	if err != nil {
		l.logger.Error("failed to retrieve thread messages", "thread_id", threadID, "error", err)
		return nil, fmt.Errorf("%w: thread %s: %w", ErrRetrieval, threadID, err)
	}

	msgs := Normalize(raw, l.logger)

	l.logger.Info("thread loaded",
		"thread_id", threadID,
		"raw_messages", len(raw),
		"messages", len(msgs),
	)
	return msgs, nil
}

// Normalize reverses newest-first records into chronological order and joins
// each record's text fragments with a single space.
func Normalize(raw []RawMessage, logger *slog.Logger) []Message {
	msgs := make([]Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		rm := raw[i]
		if !rm.Role.Valid() {
			logger.Warn("skipping message with unknown role", "message_id", rm.ID, "role", string(rm.Role))
			continue
		}

		var parts []string
		for _, c := range rm.Content {
			if c.Kind != ContentText {
				logger.Debug("ignoring non-text content", "message_id", rm.ID, "kind", string(c.Kind))
				continue
			}
			parts = append(parts, c.Text)
		}

		content := strings.TrimSpace(strings.Join(parts, " "))
		if content == "" {
			continue
		}
		msgs = append(msgs, Message{Role: rm.Role, Content: content})
	}
	return msgs
}
