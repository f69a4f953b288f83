package analytics

import (
	"slices"

	"github.com/invopop/jsonschema"
)

// RequestType is the primary classification of the request.
type RequestType string

const (
	RequestIncident       RequestType = "incident"
	RequestServiceRequest RequestType = "service_request"
	RequestGeneralInquiry RequestType = "general_inquiry"
	RequestOutOfScope     RequestType = "out_of_scope"
)

var requestTypes = []RequestType{
	RequestIncident, RequestServiceRequest, RequestGeneralInquiry, RequestOutOfScope,
}

// IncidentCategory follows the knowledge-base structure.
type IncidentCategory string

const (
	IncidentUniflowPrinter      IncidentCategory = "uniflow_printer"
	IncidentCitrix              IncidentCategory = "citrix"
	IncidentMFA                 IncidentCategory = "multifactor_authentication"
	IncidentADAccount           IncidentCategory = "ad_account"
	IncidentHardware            IncidentCategory = "hardware"
	IncidentSoftwareApplication IncidentCategory = "software_application"
	IncidentOther               IncidentCategory = "other"
	IncidentNotApplicable       IncidentCategory = "not_applicable"
)

var incidentCategories = []IncidentCategory{
	IncidentUniflowPrinter, IncidentCitrix, IncidentMFA, IncidentADAccount,
	IncidentHardware, IncidentSoftwareApplication, IncidentOther, IncidentNotApplicable,
}

// ServiceRequestType names the service request form a request maps to.
type ServiceRequestType string

const (
	ServiceSAPAccess         ServiceRequestType = "sap_access"
	ServiceEmailSharedDrive  ServiceRequestType = "email_shared_drive"
	ServiceBusinessAppAccess ServiceRequestType = "business_app_access"
	ServiceNetworkAccess     ServiceRequestType = "network_access"
	ServiceGeneralCatalog    ServiceRequestType = "general_catalog"
	ServiceOtherForm         ServiceRequestType = "other_form"
	ServiceNotApplicable     ServiceRequestType = "not_applicable"
)

var serviceRequestTypes = []ServiceRequestType{
	ServiceSAPAccess, ServiceEmailSharedDrive, ServiceBusinessAppAccess, ServiceNetworkAccess,
	ServiceGeneralCatalog, ServiceOtherForm, ServiceNotApplicable,
}

// ResolutionMethod is how the issue was handled.
type ResolutionMethod string

const (
	MethodKBGuidedTroubleshooting ResolutionMethod = "kb_guided_troubleshooting"
	MethodFormProvided            ResolutionMethod = "form_provided"
	MethodSimpleInformation       ResolutionMethod = "simple_information"
	MethodEscalated               ResolutionMethod = "escalated"
	MethodNoResolution            ResolutionMethod = "no_resolution"
	MethodNotApplicable           ResolutionMethod = "not_applicable"
)

var resolutionMethods = []ResolutionMethod{
	MethodKBGuidedTroubleshooting, MethodFormProvided, MethodSimpleInformation,
	MethodEscalated, MethodNoResolution, MethodNotApplicable,
}

// ResolutionStatus is the final outcome of the conversation.
type ResolutionStatus string

const (
	StatusResolvedByBot    ResolutionStatus = "resolved_by_bot"
	StatusResolvedWithForm ResolutionStatus = "resolved_with_form"
	StatusEscalatedToHuman ResolutionStatus = "escalated_to_human"
	StatusUserAbandoned    ResolutionStatus = "user_abandoned"
	StatusOutOfScope       ResolutionStatus = "out_of_scope"
	StatusBotFailure       ResolutionStatus = "bot_failure"
)

var resolutionStatuses = []ResolutionStatus{
	StatusResolvedByBot, StatusResolvedWithForm, StatusEscalatedToHuman,
	StatusUserAbandoned, StatusOutOfScope, StatusBotFailure,
}

// EscalationReason explains a handoff to a human agent.
type EscalationReason string

const (
	EscalationKBStepsFailed          EscalationReason = "kb_steps_failed"
	EscalationNoKBArticleFound       EscalationReason = "no_kb_article_found"
	EscalationKBStepsInfeasible      EscalationReason = "kb_steps_infeasible"
	EscalationUserRequestedHuman     EscalationReason = "user_requested_human"
	EscalationUserFrustrated         EscalationReason = "user_frustrated"
	EscalationComplexIssue           EscalationReason = "complex_issue"
	EscalationUrgentRequest          EscalationReason = "urgent_request"
	EscalationAuthenticationRequired EscalationReason = "authentication_required"
	EscalationNotEscalated           EscalationReason = "not_escalated"
)

var escalationReasons = []EscalationReason{
	EscalationKBStepsFailed, EscalationNoKBArticleFound, EscalationKBStepsInfeasible,
	EscalationUserRequestedHuman, EscalationUserFrustrated, EscalationComplexIssue,
	EscalationUrgentRequest, EscalationAuthenticationRequired, EscalationNotEscalated,
}

// ConversationQuality grades the bot's handling of the conversation.
type ConversationQuality string

const (
	QualityExcellent  ConversationQuality = "excellent"
	QualityGood       ConversationQuality = "good"
	QualityAcceptable ConversationQuality = "acceptable"
	QualityPoor       ConversationQuality = "poor"
	QualityFailed     ConversationQuality = "failed"
)

var conversationQualities = []ConversationQuality{
	QualityExcellent, QualityGood, QualityAcceptable, QualityPoor, QualityFailed,
}

// UserSentiment feeds the employee satisfaction KPI.
type UserSentiment string

const (
	SentimentVerySatisfied    UserSentiment = "very_satisfied"
	SentimentSatisfied        UserSentiment = "satisfied"
	SentimentNeutral          UserSentiment = "neutral"
	SentimentDissatisfied     UserSentiment = "dissatisfied"
	SentimentVeryDissatisfied UserSentiment = "very_dissatisfied"
)

var userSentiments = []UserSentiment{
	SentimentVerySatisfied, SentimentSatisfied, SentimentNeutral,
	SentimentDissatisfied, SentimentVeryDissatisfied,
}

// BotFailureType is the specific bot malfunction, or none.
type BotFailureType string

const (
	FailureWentSilent        BotFailureType = "went_silent"
	FailureMissedKBSearch    BotFailureType = "missed_kb_search"
	FailureMultipleQuestions BotFailureType = "multiple_questions"
	FailureWrongFormProvided BotFailureType = "wrong_form_provided"
	FailureProtocolViolation BotFailureType = "protocol_violation"
	FailureNone              BotFailureType = "none"
)

var botFailureTypes = []BotFailureType{
	FailureWentSilent, FailureMissedKBSearch, FailureMultipleQuestions,
	FailureWrongFormProvided, FailureProtocolViolation, FailureNone,
}

// CallEndReason is how and why the call ended.
type CallEndReason string

const (
	EndResolvedNormalClose CallEndReason = "resolved_normal_close"
	EndEscalatedClose      CallEndReason = "escalated_close"
	EndFormProvidedClose   CallEndReason = "form_provided_close"
	EndUserAbandoned       CallEndReason = "user_abandoned"
	EndUserDisconnected    CallEndReason = "user_disconnected"
	EndUserRequestedEnd    CallEndReason = "user_requested_end"
	EndBotFailure          CallEndReason = "bot_failure"
	EndOutOfScopeRedirect  CallEndReason = "out_of_scope_redirect"
	EndUrgentHandoff       CallEndReason = "urgent_handoff"
)

var callEndReasons = []CallEndReason{
	EndResolvedNormalClose, EndEscalatedClose, EndFormProvidedClose, EndUserAbandoned,
	EndUserDisconnected, EndUserRequestedEnd, EndBotFailure, EndOutOfScopeRedirect,
	EndUrgentHandoff,
}

func (v RequestType) Valid() bool         { return slices.Contains(requestTypes, v) }
func (v IncidentCategory) Valid() bool    { return slices.Contains(incidentCategories, v) }
func (v ServiceRequestType) Valid() bool  { return slices.Contains(serviceRequestTypes, v) }
func (v ResolutionMethod) Valid() bool    { return slices.Contains(resolutionMethods, v) }
func (v ResolutionStatus) Valid() bool    { return slices.Contains(resolutionStatuses, v) }
func (v EscalationReason) Valid() bool    { return slices.Contains(escalationReasons, v) }
func (v ConversationQuality) Valid() bool { return slices.Contains(conversationQualities, v) }
func (v UserSentiment) Valid() bool       { return slices.Contains(userSentiments, v) }
func (v BotFailureType) Valid() bool      { return slices.Contains(botFailureTypes, v) }
func (v CallEndReason) Valid() bool       { return slices.Contains(callEndReasons, v) }

// JSONSchema methods let the reflector emit each closed value set as a string enum.

func (RequestType) JSONSchema() *jsonschema.Schema         { return enumSchema(requestTypes) }
func (IncidentCategory) JSONSchema() *jsonschema.Schema    { return enumSchema(incidentCategories) }
func (ServiceRequestType) JSONSchema() *jsonschema.Schema  { return enumSchema(serviceRequestTypes) }
func (ResolutionMethod) JSONSchema() *jsonschema.Schema    { return enumSchema(resolutionMethods) }
func (ResolutionStatus) JSONSchema() *jsonschema.Schema    { return enumSchema(resolutionStatuses) }
func (EscalationReason) JSONSchema() *jsonschema.Schema    { return enumSchema(escalationReasons) }
func (ConversationQuality) JSONSchema() *jsonschema.Schema { return enumSchema(conversationQualities) }
func (UserSentiment) JSONSchema() *jsonschema.Schema       { return enumSchema(userSentiments) }
func (BotFailureType) JSONSchema() *jsonschema.Schema      { return enumSchema(botFailureTypes) }
func (CallEndReason) JSONSchema() *jsonschema.Schema       { return enumSchema(callEndReasons) }

func enumSchema[T ~string](values []T) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = string(v)
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}
