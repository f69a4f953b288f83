// Package analyticstest provides ready-made analytics records for tests.
package analyticstest

import "github.com/MikeSquared-Agency/triage/internal/analytics"

func ptr[T any](v T) *T { return &v }

// ResolvedPrinterIncident is a printer PIN reset fixed by the bot with a
// satisfied user.
func ResolvedPrinterIncident() *analytics.Record {
	return &analytics.Record{
		RequestType:                analytics.RequestIncident,
		IncidentCategory:           analytics.IncidentUniflowPrinter,
		ServiceRequestType:         analytics.ServiceNotApplicable,
		IssueSummary:               "User's Uniflow printer PIN reset failed",
		IssueKeywords:              []string{"uniflow", "pin reset", "printer"},
		ResolutionStatus:           analytics.StatusResolvedByBot,
		ResolutionMethod:           analytics.MethodKBGuidedTroubleshooting,
		ResolutionProvided:         ptr("Guided user to reset the PIN via the Uniflow portal"),
		FirstContactResolution:     true,
		AutomationSuccess:          true,
		EscalationReason:           analytics.EscalationNotEscalated,
		KBSearchPerformed:          true,
		KBArticleFound:             true,
		KBStepsAttempted:           []string{"Reset PIN via Uniflow portal"},
		KBStepsCount:               1,
		KBStepsSuccessful:          true,
		CorrectFormProvided:        true,
		IMSTicketCreated:           true,
		IMSTicketNumber:            ptr("IMS0012345"),
		TotalTurns:                 5,
		UserTurns:                  3,
		AssistantTurns:             2,
		ConversationEndedNaturally: true,
		UserSentiment:              analytics.SentimentSatisfied,
		SatisfactionScore:          4,
		UserExpressedSatisfaction:  ptr(true),
		FrustrationTriggers:        []string{},
		CallEndReason:              analytics.EndResolvedNormalClose,
		ConversationQuality:        analytics.QualityGood,
		QualityScore:               4,
		BotFollowedProtocol:        true,
		BotFailureType:             analytics.FailureNone,
		ProtocolViolations:         []string{},
		SecondaryIssues:            []string{},
	}
}

// SilentBot is a conversation where the bot asked a question and never
// answered the user's follow-up.
func SilentBot() *analytics.Record {
	return &analytics.Record{
		RequestType:                analytics.RequestIncident,
		IncidentCategory:           analytics.IncidentMFA,
		ServiceRequestType:         analytics.ServiceNotApplicable,
		IssueSummary:               "Authenticator app not showing codes; bot stopped responding",
		IssueKeywords:              []string{"authenticator", "mfa"},
		ResolutionStatus:           analytics.StatusBotFailure,
		ResolutionMethod:           analytics.MethodNoResolution,
		EscalationReason:           analytics.EscalationNotEscalated,
		KBStepsAttempted:           []string{},
		CorrectFormProvided:        true,
		TotalTurns:                 4,
		UserTurns:                  2,
		AssistantTurns:             2,
		ConversationEndedNaturally: false,
		UserSentiment:              analytics.SentimentDissatisfied,
		SatisfactionScore:          2,
		UserExpressedFrustration:   true,
		FrustrationTriggers:        []string{"bot went silent"},
		CallEndReason:              analytics.EndBotFailure,
		ConversationQuality:        analytics.QualityFailed,
		QualityScore:               1,
		BotFailureOccurred:         true,
		BotFailureType:             analytics.FailureWentSilent,
		ProtocolViolations:         []string{"no response after user answer"},
		SecondaryIssues:            []string{},
	}
}
