package extractor

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
	"github.com/MikeSquared-Agency/triage/internal/analytics/analyticstest"
	"github.com/MikeSquared-Agency/triage/internal/azureopenai"
	"github.com/MikeSquared-Agency/triage/internal/thread"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCompleter struct {
	reply  string
	err    error
	system string
	user   string
	schema azureopenai.JSONSchema
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string, schema azureopenai.JSONSchema) (string, error) {
	f.system, f.user, f.schema = system, user, schema
	return f.reply, f.err
}

func replyFor(t *testing.T, rec *analytics.Record) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, analytics.WriteJSON(&buf, rec))
	return buf.String()
}

var printerConversation = []thread.Message{
	{Role: thread.RoleUser, Content: "My Uniflow printer PIN isn't working"},
	{Role: thread.RoleAssistant, Content: "Let me search the knowledge base. Please reset your PIN in the Uniflow portal under Security."},
	{Role: thread.RoleUser, Content: "Done, it prints now"},
	{Role: thread.RoleAssistant, Content: "Great! Anything else?"},
	{Role: thread.RoleUser, Content: "No, thanks!"},
}

var silentConversation = []thread.Message{
	{Role: thread.RoleUser, Content: "My authenticator app is not showing codes"},
	{Role: thread.RoleAssistant, Content: "Are you able to open the Microsoft Authenticator app?"},
	{Role: thread.RoleUser, Content: "Yes I can open it"},
	{Role: thread.RoleUser, Content: "Hello? Are you there?"},
}

func TestRenderTranscript(t *testing.T) {
	got := RenderTranscript([]thread.Message{
		{Role: thread.RoleUser, Content: "hi"},
		{Role: thread.RoleAssistant, Content: "hello"},
	})
	assert.Equal(t, "USER: hi\nASSISTANT: hello", got)
	assert.Empty(t, RenderTranscript(nil))
}

func TestExtract_ResolvedIncident(t *testing.T) {
	want := analyticstest.ResolvedPrinterIncident()
	llm := &fakeCompleter{reply: replyFor(t, want)}

	rec, err := New(llm, discardLogger()).Extract(context.Background(), printerConversation)
	require.NoError(t, err)
	require.NoError(t, rec.Validate())

	assert.Equal(t, want, rec)
	assert.Equal(t, analytics.RequestIncident, rec.RequestType)
	assert.Equal(t, analytics.IncidentUniflowPrinter, rec.IncidentCategory)
	assert.Equal(t, analytics.StatusResolvedByBot, rec.ResolutionStatus)
	assert.GreaterOrEqual(t, rec.SatisfactionScore, 4)
	assert.False(t, rec.BotFailureOccurred)

	assert.Contains(t, llm.user, "USER: My Uniflow printer PIN isn't working\nASSISTANT: Let me search")
}

func TestExtract_SilentBot(t *testing.T) {
	llm := &fakeCompleter{reply: replyFor(t, analyticstest.SilentBot())}

	rec, err := New(llm, discardLogger()).Extract(context.Background(), silentConversation)
	require.NoError(t, err)

	assert.Equal(t, analytics.StatusBotFailure, rec.ResolutionStatus)
	assert.True(t, rec.BotFailureOccurred)
	assert.Equal(t, analytics.FailureWentSilent, rec.BotFailureType)
	assert.False(t, rec.ConversationEndedNaturally)
	assert.LessOrEqual(t, rec.QualityScore, 2)
	assert.True(t, rec.NeedsAttention())
}

func TestExtract_Prompts(t *testing.T) {
	llm := &fakeCompleter{reply: replyFor(t, analyticstest.SilentBot())}
	_, err := New(llm, discardLogger()).Extract(context.Background(), silentConversation)
	require.NoError(t, err)

	for _, want := range []string{"Detecting bot failures", "Use the full 1-5 scoring range", "high scores must be earned"} {
		assert.Contains(t, llm.system, want)
	}
	for _, want := range []string{"LAST few messages", `"are you there?"`, "IMS tickets", "INC tickets"} {
		assert.Contains(t, llm.user, want)
	}
	assert.Equal(t, analytics.SchemaName, llm.schema.Name)
	assert.Contains(t, string(llm.schema.Schema), `"additionalProperties":false`)
}

func TestExtract_Errors(t *testing.T) {
	valid := replyFor(t, analyticstest.SilentBot())

	tests := []struct {
		name string
		llm  *fakeCompleter
	}{
		{"completion error", &fakeCompleter{err: azureopenai.ErrRefused}},
		{"not json", &fakeCompleter{reply: "I could not analyze this conversation."}},
		{"unknown field", &fakeCompleter{reply: strings.Replace(valid, "{", `{"intent_confidence": 0.4,`, 1)}},
		{"wrong type", &fakeCompleter{reply: strings.Replace(valid, `"satisfaction_score": 2`, `"satisfaction_score": "two"`, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := New(tt.llm, discardLogger()).Extract(context.Background(), silentConversation)
			assert.ErrorIs(t, err, ErrExtraction)
			assert.Nil(t, rec)
		})
	}
}

func TestExtract_KeepsCause(t *testing.T) {
	llm := &fakeCompleter{err: azureopenai.ErrTruncated}
	_, err := New(llm, discardLogger()).Extract(context.Background(), silentConversation)
	assert.ErrorIs(t, err, azureopenai.ErrTruncated)
}

func TestExtract_EmptyConversationPassesThrough(t *testing.T) {
	llm := &fakeCompleter{reply: replyFor(t, analyticstest.SilentBot())}
	_, err := New(llm, discardLogger()).Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, llm.user, "extract structured information:\n\n\n\n**IMPORTANT NOTES:**")
}
