package hermes

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
)

const (
	// SubjectThreadCompleted is published by the helpdesk bot when a
	// conversation closes.
	SubjectThreadCompleted = "helpdesk.thread.completed"

	SubjectAnalyticsExtracted = "helpdesk.analytics.extracted"
	SubjectAnalyticsFailed    = "helpdesk.analytics.failed"

	// SubjectAgentRegistered announces a service instance on startup.
	SubjectAgentRegistered = "swarm.agent.triage.registered"

	// QueueTriage is the queue group shared by triage replicas.
	QueueTriage = "triage"
)

type ThreadCompletedEvent struct {
	ThreadID string `json:"thread_id"`
}

// ParseThreadCompleted decodes and checks a thread-completed payload.
func ParseThreadCompleted(data []byte) (ThreadCompletedEvent, error) {
	var evt ThreadCompletedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return evt, fmt.Errorf("parse thread completed: %w", err)
	}
	evt.ThreadID = strings.TrimSpace(evt.ThreadID)
	if evt.ThreadID == "" {
		return evt, fmt.Errorf("parse thread completed: missing thread_id")
	}
	return evt, nil
}

type AnalyticsExtractedEvent struct {
	AnalyticsID    string            `json:"analytics_id"`
	ThreadID       string            `json:"thread_id"`
	Model          string            `json:"model"`
	NeedsAttention bool              `json:"needs_attention"`
	ExtractedAt    time.Time         `json:"extracted_at"`
	Record         *analytics.Record `json:"record"`
}

type AnalyticsFailedEvent struct {
	ThreadID string    `json:"thread_id"`
	Stage    string    `json:"stage"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}
