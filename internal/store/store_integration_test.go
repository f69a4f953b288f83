//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
	"github.com/MikeSquared-Agency/triage/internal/analytics/analyticstest"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(ctx))

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_SaveAndLoadAnalytics(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	threadID := "integration-test-" + uuid.New().String()[:8]

	rec := analyticstest.SilentBot()
	id, err := s.SaveAnalytics(ctx, threadID, "gpt-4o", rec)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM conversation_analytics WHERE id = $1", id)
	})

	row, err := s.LatestForThread(ctx, threadID)
	require.NoError(t, err)
	assert.Equal(t, id, row.ID)
	assert.Equal(t, analytics.FailureWentSilent, row.Record.BotFailureType)
	assert.Nil(t, row.Record.ResolutionProvided)

	sum, err := s.Summary(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sum.Total, 1)
	assert.GreaterOrEqual(t, sum.BotFailures, 1)
	assert.GreaterOrEqual(t, sum.NeedsAttention, 1)
}

func TestIntegration_LatestForThread_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.LatestForThread(context.Background(), "no-such-thread-"+uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}
