package analytics_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/triage/internal/analytics"
	"github.com/MikeSquared-Agency/triage/internal/analytics/analyticstest"
)

func TestValidate_Fixtures(t *testing.T) {
	require.NoError(t, analyticstest.ResolvedPrinterIncident().Validate())
	require.NoError(t, analyticstest.SilentBot().Validate())
}

func TestValidate_ScoreRange(t *testing.T) {
	for _, score := range []int{0, 6, -1} {
		rec := analyticstest.ResolvedPrinterIncident()
		rec.SatisfactionScore = score
		err := rec.Validate()
		require.ErrorIs(t, err, analytics.ErrInvalidRecord, "satisfaction_score %d", score)
		assert.Contains(t, err.Error(), "satisfaction_score")

		rec = analyticstest.ResolvedPrinterIncident()
		rec.QualityScore = score
		err = rec.Validate()
		require.ErrorIs(t, err, analytics.ErrInvalidRecord, "quality_score %d", score)
		assert.Contains(t, err.Error(), "quality_score")
	}
}

func TestValidate_UnknownEnumValue(t *testing.T) {
	rec := analyticstest.ResolvedPrinterIncident()
	rec.UserSentiment = "ecstatic"

	err := rec.Validate()
	require.ErrorIs(t, err, analytics.ErrInvalidRecord)
	assert.Contains(t, err.Error(), `user_sentiment: "ecstatic" is not an allowed value`)
}

func TestValidate_OptionalEnum(t *testing.T) {
	rec := analyticstest.ResolvedPrinterIncident()
	bogus := analytics.ServiceRequestType("fax_form")
	rec.FormTypeProvided = &bogus
	require.ErrorIs(t, rec.Validate(), analytics.ErrInvalidRecord)

	ok := analytics.ServiceSAPAccess
	rec.FormTypeProvided = &ok
	require.NoError(t, rec.Validate())
}

func TestValidate_Bounds(t *testing.T) {
	rec := analyticstest.ResolvedPrinterIncident()
	rec.IssueSummary = strings.Repeat("x", 201)
	rec.IssueKeywords = []string{"a", "b", "c", "d", "e", "f"}
	long := strings.Repeat("y", 301)
	rec.ResolutionProvided = &long

	err := rec.Validate()
	require.ErrorIs(t, err, analytics.ErrInvalidRecord)
	assert.Contains(t, err.Error(), "issue_summary")
	assert.Contains(t, err.Error(), "issue_keywords")
	assert.Contains(t, err.Error(), "resolution_provided")
}

func TestValidate_BoundsCountRunes(t *testing.T) {
	rec := analyticstest.ResolvedPrinterIncident()
	rec.IssueSummary = strings.Repeat("é", 200)
	assert.NoError(t, rec.Validate())
}

func TestValidate_SentinelConsistency(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*analytics.Record)
		wantErr string
	}{
		{
			name: "service request with incident category",
			mutate: func(r *analytics.Record) {
				r.RequestType = analytics.RequestServiceRequest
				r.ServiceRequestType = analytics.ServiceSAPAccess
				r.IncidentCategory = analytics.IncidentCitrix
			},
			wantErr: "incident_category: must be not_applicable when request_type is service_request",
		},
		{
			name: "incident with service request type",
			mutate: func(r *analytics.Record) {
				r.ServiceRequestType = analytics.ServiceNetworkAccess
			},
			wantErr: "service_request_type: must be not_applicable when request_type is incident",
		},
		{
			name: "general inquiry with incident category",
			mutate: func(r *analytics.Record) {
				r.RequestType = analytics.RequestGeneralInquiry
			},
			wantErr: "incident_category",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := analyticstest.ResolvedPrinterIncident()
			tt.mutate(rec)
			err := rec.Validate()
			require.ErrorIs(t, err, analytics.ErrInvalidRecord)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	rec := analyticstest.ResolvedPrinterIncident()
	rec.RequestType = analytics.RequestOutOfScope
	rec.IncidentCategory = analytics.IncidentNotApplicable
	assert.NoError(t, rec.Validate())
}

func TestJSON_RoundTrip(t *testing.T) {
	for _, rec := range []*analytics.Record{
		analyticstest.ResolvedPrinterIncident(),
		analyticstest.SilentBot(),
	} {
		path := filepath.Join(t.TempDir(), "structured_output.json")
		require.NoError(t, analytics.SaveJSON(path, rec))

		got, err := analytics.LoadJSON(path)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	}
}

func TestWriteJSON_IndentedWithStringEnums(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, analytics.WriteJSON(&buf, analyticstest.SilentBot()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n  \"request_type\": \"incident\""), out)
	assert.Contains(t, out, `"bot_failure_type": "went_silent"`)
	assert.Contains(t, out, `"resolution_provided": null`)
}

func TestReadJSON_RejectsUnknownFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, analytics.WriteJSON(&buf, analyticstest.SilentBot()))
	doc := strings.Replace(buf.String(), "{", `{"mood": "grumpy",`, 1)

	_, err := analytics.ReadJSON(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestSchema_Strict(t *testing.T) {
	raw, err := analytics.Schema()
	require.NoError(t, err)

	var s struct {
		Type                 string                     `json:"type"`
		AdditionalProperties *bool                      `json:"additionalProperties"`
		Required             []string                   `json:"required"`
		Properties           map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &s))

	assert.Equal(t, "object", s.Type)
	require.NotNil(t, s.AdditionalProperties)
	assert.False(t, *s.AdditionalProperties)
	assert.Len(t, s.Required, len(s.Properties))
	assert.Equal(t, "request_type", s.Required[0])
	assert.Equal(t, "additional_notes", s.Required[len(s.Required)-1])
}

func TestSchema_PropertyShapes(t *testing.T) {
	raw, err := analytics.Schema()
	require.NoError(t, err)

	var s struct {
		Properties map[string]struct {
			Type      string   `json:"type"`
			Enum      []string `json:"enum"`
			Minimum   *int     `json:"minimum"`
			Maximum   *int     `json:"maximum"`
			MaxLength *int     `json:"maxLength"`
			MaxItems  *int     `json:"maxItems"`
			AnyOf     []struct {
				Type string   `json:"type"`
				Enum []string `json:"enum"`
			} `json:"anyOf"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &s))

	rt := s.Properties["request_type"]
	assert.Equal(t, "string", rt.Type)
	assert.Equal(t, []string{"incident", "service_request", "general_inquiry", "out_of_scope"}, rt.Enum)

	score := s.Properties["satisfaction_score"]
	assert.Equal(t, "integer", score.Type)
	require.NotNil(t, score.Minimum)
	require.NotNil(t, score.Maximum)
	assert.Equal(t, 1, *score.Minimum)
	assert.Equal(t, 5, *score.Maximum)

	require.NotNil(t, s.Properties["issue_summary"].MaxLength)
	assert.Equal(t, 200, *s.Properties["issue_summary"].MaxLength)
	require.NotNil(t, s.Properties["issue_keywords"].MaxItems)
	assert.Equal(t, 5, *s.Properties["issue_keywords"].MaxItems)

	form := s.Properties["form_type_provided"]
	require.Len(t, form.AnyOf, 2)
	assert.Contains(t, form.AnyOf[0].Enum, "sap_access")
	assert.Equal(t, "null", form.AnyOf[1].Type)

	turn := s.Properties["escalation_turn_number"]
	require.Len(t, turn.AnyOf, 2)
	assert.Equal(t, "integer", turn.AnyOf[0].Type)
}

func TestRecord_Flags(t *testing.T) {
	ok := analyticstest.ResolvedPrinterIncident()
	assert.False(t, ok.Escalated())
	assert.False(t, ok.NeedsAttention())

	silent := analyticstest.SilentBot()
	assert.True(t, silent.NeedsAttention())

	escalated := analyticstest.ResolvedPrinterIncident()
	escalated.ResolutionStatus = analytics.StatusEscalatedToHuman
	escalated.EscalationReason = analytics.EscalationKBStepsFailed
	assert.True(t, escalated.Escalated())
}
