package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostAlert posts a summary of a conversation that needs attention, with
// the failure details as a threaded reply.
func (p *Poster) PostAlert(ctx context.Context, threadID string, rec *analytics.Record) error {
	text := formatAlert(threadID, rec)

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "Thread `" + threadID + "`",
					},
				},
			},
		},
	})
	if err != nil {
		return err
	}
	p.logger.Info("posted alert to slack", "ts", ts, "thread_id", threadID)

	if details := formatDetails(rec); details != "" {
		if err := p.PostThread(ctx, ts, details); err != nil {
			p.logger.Warn("failed to post alert details", "ts", ts, "error", err)
		}
	}
	return nil
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatAlert(threadID string, rec *analytics.Record) string {
	var sb strings.Builder

	switch {
	case rec.ResolutionStatus == analytics.StatusBotFailure:
		fmt.Fprintf(&sb, ":rotating_light: *Bot failure* (%s)\n", rec.BotFailureType)
	default:
		sb.WriteString(":warning: *Very dissatisfied user*\n")
	}

	fmt.Fprintf(&sb, "*Issue:* %s\n", rec.IssueSummary)
	category := string(rec.IncidentCategory)
	if rec.RequestType == analytics.RequestServiceRequest {
		category = string(rec.ServiceRequestType)
	}
	fmt.Fprintf(&sb, "*Type:* %s / %s\n", rec.RequestType, category)
	fmt.Fprintf(&sb, "*Outcome:* %s | *Ended:* %s\n", rec.ResolutionStatus, rec.CallEndReason)
	fmt.Fprintf(&sb, "*Sentiment:* %s | Satisfaction %d/5 | Quality %d/5", rec.UserSentiment, rec.SatisfactionScore, rec.QualityScore)

	return sb.String()
}

func formatDetails(rec *analytics.Record) string {
	var sb strings.Builder

	if len(rec.FrustrationTriggers) > 0 {
		sb.WriteString("*Frustration triggers:*\n")
		for _, s := range rec.FrustrationTriggers {
			fmt.Fprintf(&sb, "• %s\n", s)
		}
	}
	if len(rec.ProtocolViolations) > 0 {
		sb.WriteString("*Protocol violations:*\n")
		for _, s := range rec.ProtocolViolations {
			fmt.Fprintf(&sb, "• %s\n", s)
		}
	}
	if rec.AdditionalNotes != nil && *rec.AdditionalNotes != "" {
		fmt.Fprintf(&sb, "*Notes:* %s\n", *rec.AdditionalNotes)
	}

	return strings.TrimSpace(sb.String())
}
