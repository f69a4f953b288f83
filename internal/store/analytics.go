package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
)

var ErrNotFound = errors.New("not found")

// AnalyticsRow is one stored extraction.
type AnalyticsRow struct {
	ID          uuid.UUID         `json:"id"`
	ThreadID    string            `json:"thread_id"`
	Model       string            `json:"model"`
	ExtractedAt time.Time         `json:"extracted_at"`
	Record      *analytics.Record `json:"record"`
}

// Summary aggregates stored extractions for dashboards.
type Summary struct {
	Since                time.Time      `json:"since"`
	Total                int            `json:"total"`
	FirstContactResolved int            `json:"first_contact_resolved"`
	AutomationSuccess    int            `json:"automation_success"`
	Escalated            int            `json:"escalated"`
	BotFailures          int            `json:"bot_failures"`
	NeedsAttention       int            `json:"needs_attention"`
	AvgSatisfaction      float64        `json:"avg_satisfaction"`
	AvgQuality           float64        `json:"avg_quality"`
	ByRequestType        map[string]int `json:"by_request_type"`
	TopKeywords          []KeywordCount `json:"top_keywords"`
}

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// SaveAnalytics writes a record with its denormalized columns and keywords.
func (s *Store) SaveAnalytics(ctx context.Context, threadID, model string, rec *analytics.Record) (uuid.UUID, error) {
	var doc bytes.Buffer
	if err := analytics.WriteJSON(&doc, rec); err != nil {
		return uuid.Nil, fmt.Errorf("encode record: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	id := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO conversation_analytics (
			id, thread_id, model, extracted_at,
			request_type, resolution_status, user_sentiment,
			satisfaction_score, quality_score,
			first_contact_resolution, automation_success, escalated,
			bot_failure_occurred, needs_attention, record)
		VALUES ($1, $2, $3, now(), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		id, threadID, model,
		string(rec.RequestType), string(rec.ResolutionStatus), string(rec.UserSentiment),
		rec.SatisfactionScore, rec.QualityScore,
		rec.FirstContactResolution, rec.AutomationSuccess, rec.Escalated(),
		rec.BotFailureOccurred, rec.NeedsAttention(), doc.String(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert analytics: %w", err)
	}

	seen := make(map[string]bool)
	for _, kw := range rec.IssueKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		_, err = tx.Exec(ctx, `
			INSERT INTO analytics_keywords (analytics_id, keyword)
			VALUES ($1, $2)`,
			id, kw,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert keyword: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// LatestForThread returns the most recent extraction for a thread.
func (s *Store) LatestForThread(ctx context.Context, threadID string) (*AnalyticsRow, error) {
	var (
		row AnalyticsRow
		doc []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, thread_id, model, extracted_at, record
		FROM conversation_analytics
		WHERE thread_id = $1
		ORDER BY extracted_at DESC
		LIMIT 1`,
		threadID,
	).Scan(&row.ID, &row.ThreadID, &row.Model, &row.ExtractedAt, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}

	rec, err := analytics.ReadJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("decode stored record %s: %w", row.ID, err)
	}
	row.Record = rec
	return &row, nil
}

// Summary aggregates extractions made at or after since.
func (s *Store) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	sum := Summary{Since: since, ByRequestType: map[string]int{}, TopKeywords: []KeywordCount{}}

	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE first_contact_resolution),
			count(*) FILTER (WHERE automation_success),
			count(*) FILTER (WHERE escalated),
			count(*) FILTER (WHERE bot_failure_occurred),
			count(*) FILTER (WHERE needs_attention),
			COALESCE(avg(satisfaction_score), 0)::float8,
			COALESCE(avg(quality_score), 0)::float8
		FROM conversation_analytics
		WHERE extracted_at >= $1`,
		since,
	).Scan(&sum.Total, &sum.FirstContactResolved, &sum.AutomationSuccess, &sum.Escalated,
		&sum.BotFailures, &sum.NeedsAttention, &sum.AvgSatisfaction, &sum.AvgQuality)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT request_type, count(*)
		FROM conversation_analytics
		WHERE extracted_at >= $1
		GROUP BY request_type`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query request types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rt string
			n  int
		)
		if err := rows.Scan(&rt, &n); err != nil {
			return nil, fmt.Errorf("scan request type: %w", err)
		}
		sum.ByRequestType[rt] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request types: %w", err)
	}

	kwRows, err := s.pool.Query(ctx, `
		SELECT k.keyword, count(*) AS n
		FROM analytics_keywords k
		JOIN conversation_analytics a ON a.id = k.analytics_id
		WHERE a.extracted_at >= $1
		GROUP BY k.keyword
		ORDER BY n DESC, k.keyword
		LIMIT 10`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer kwRows.Close()
	for kwRows.Next() {
		var kc KeywordCount
		if err := kwRows.Scan(&kc.Keyword, &kc.Count); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		sum.TopKeywords = append(sum.TopKeywords, kc)
	}
	if err := kwRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keywords: %w", err)
	}

	return &sum, nil
}
