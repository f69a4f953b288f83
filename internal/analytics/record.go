// Package analytics defines the conversation analytics record extracted from
// helpdesk transcripts, its strict JSON schema and its post-condition checks.
package analytics

// Record is the structured result of analyzing one complete conversation.
// Pointer fields are optional and serialize as null when absent.
type Record struct {
	// Request classification.
	RequestType        RequestType        `json:"request_type" validate:"enum" jsonschema_description:"Primary classification: incident, service_request, general_inquiry or out_of_scope"`
	IncidentCategory   IncidentCategory   `json:"incident_category" validate:"enum" jsonschema_description:"Incident category when request_type is incident, otherwise not_applicable"`
	ServiceRequestType ServiceRequestType `json:"service_request_type" validate:"enum" jsonschema_description:"Service request form type when request_type is service_request, otherwise not_applicable"`
	IssueSummary       string             `json:"issue_summary" validate:"max=200" jsonschema:"maxLength=200" jsonschema_description:"One sentence summary of the issue or request. Example: 'User unable to print to Uniflow after PIN reset'"`
	IssueKeywords      []string           `json:"issue_keywords" validate:"max=5" jsonschema:"maxItems=5" jsonschema_description:"Up to 5 key technical terms from the conversation. Example: ['uniflow', 'pin reset', 'printer']"`

	// Resolution.
	ResolutionStatus       ResolutionStatus `json:"resolution_status" validate:"enum" jsonschema_description:"Final outcome. resolved_by_bot and resolved_with_form count as first contact resolution and automation success; escalated_to_human and user_abandoned do not; out_of_scope is excluded from metrics; bot_failure means the bot went silent or failed"`
	ResolutionMethod       ResolutionMethod `json:"resolution_method" validate:"enum" jsonschema_description:"How the request was handled"`
	ResolutionProvided     *string          `json:"resolution_provided" validate:"omitempty,max=300" jsonschema:"maxLength=300" jsonschema_description:"Brief summary of the solution if resolved. Example: 'Guided user to reset Uniflow PIN via security settings'"`
	FirstContactResolution bool             `json:"first_contact_resolution" jsonschema_description:"True when the issue was fully resolved in this conversation without escalation or follow-up"`
	AutomationSuccess      bool             `json:"automation_success" jsonschema_description:"True when the bot resolved the request without any human involvement"`

	// Escalation.
	EscalationReason     EscalationReason `json:"escalation_reason" validate:"enum" jsonschema_description:"Primary reason for escalation, used to identify knowledge base gaps. not_escalated when no handoff happened"`
	EscalationTurnNumber *int             `json:"escalation_turn_number" validate:"omitempty,min=0" jsonschema_description:"Turn number at which escalation occurred"`

	// Knowledge base effectiveness.
	KBSearchPerformed bool     `json:"kb_search_performed" jsonschema_description:"Whether the knowledge base search tool was called"`
	KBArticleFound    bool     `json:"kb_article_found" jsonschema_description:"Whether a relevant knowledge base article was returned"`
	KBStepsAttempted  []string `json:"kb_steps_attempted" jsonschema_description:"Troubleshooting steps from the knowledge base that were attempted. Example: ['Reset PIN', 'Clear cache']"`
	KBStepsCount      int      `json:"kb_steps_count" validate:"min=0" jsonschema_description:"Number of distinct troubleshooting steps attempted"`
	KBStepsSuccessful bool     `json:"kb_steps_successful" jsonschema_description:"Whether the knowledge base steps resolved the issue"`

	// Form handling.
	FormProvided        bool                `json:"form_provided" jsonschema_description:"Whether a service request form was provided to the user"`
	FormTypeProvided    *ServiceRequestType `json:"form_type_provided" validate:"omitempty,enum" jsonschema_description:"Which form was provided, if any"`
	FormURLSent         *string             `json:"form_url_sent" jsonschema_description:"The form URL that was sent to the user"`
	CorrectFormProvided bool                `json:"correct_form_provided" jsonschema_description:"Whether the bot identified and provided the correct form. False is a process failure"`

	// Tickets.
	IMSTicketCreated bool    `json:"ims_ticket_created" jsonschema_description:"Whether an IMS interaction ticket was created. Expected for every IT call"`
	IMSTicketNumber  *string `json:"ims_ticket_number" jsonschema_description:"IMS ticket number if created"`
	INCTicketCreated bool    `json:"inc_ticket_created" jsonschema_description:"Whether an INC incident ticket was created, which indicates escalation"`
	INCTicketNumber  *string `json:"inc_ticket_number" jsonschema_description:"INC ticket number if created"`

	// Conversation metrics.
	TotalTurns                 int  `json:"total_turns" validate:"min=0" jsonschema_description:"Total conversation turns, user plus assistant messages"`
	UserTurns                  int  `json:"user_turns" validate:"min=0" jsonschema_description:"Number of user messages"`
	AssistantTurns             int  `json:"assistant_turns" validate:"min=0" jsonschema_description:"Number of assistant messages"`
	ConversationEndedNaturally bool `json:"conversation_ended_naturally" jsonschema_description:"True if the conversation ended with a proper closing. False if the bot went silent, the user abandoned or the call disconnected"`

	// User experience.
	UserSentiment             UserSentiment `json:"user_sentiment" validate:"enum" jsonschema_description:"Overall user sentiment throughout the conversation"`
	SatisfactionScore         int           `json:"satisfaction_score" validate:"min=1,max=5" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Satisfaction score: 5 very satisfied, 4 satisfied, 3 neutral, 2 dissatisfied, 1 very dissatisfied"`
	UserExpressedSatisfaction *bool         `json:"user_expressed_satisfaction" jsonschema_description:"True if the user explicitly thanked or expressed satisfaction, false if they expressed dissatisfaction, null if unclear"`
	UserExpressedFrustration  bool          `json:"user_expressed_frustration" jsonschema_description:"Whether the user showed signs of frustration"`
	FrustrationTriggers       []string      `json:"frustration_triggers" jsonschema_description:"What caused frustration. Example: ['repeated failed steps', 'bot went silent']"`
	CallEndReason             CallEndReason `json:"call_end_reason" validate:"enum" jsonschema_description:"How and why the call ended"`

	// Bot performance.
	ConversationQuality ConversationQuality `json:"conversation_quality" validate:"enum" jsonschema_description:"Overall quality of the bot's handling"`
	QualityScore        int                 `json:"quality_score" validate:"min=1,max=5" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Quality score: 5 excellent, 4 good, 3 acceptable, 2 poor, 1 failed"`
	BotFollowedProtocol bool                `json:"bot_followed_protocol" jsonschema_description:"Whether the bot searched the knowledge base before troubleshooting, asked one question at a time, collected triage details before ticketing and closed properly"`
	BotFailureOccurred  bool                `json:"bot_failure_occurred" jsonschema_description:"Whether any bot failure or malfunction occurred"`
	BotFailureType      BotFailureType      `json:"bot_failure_type" validate:"enum" jsonschema_description:"Type of bot failure, none if no failure occurred"`
	ProtocolViolations  []string            `json:"protocol_violations" jsonschema_description:"Specific protocol violations. Example: ['skipped KB search', 'asked 3 questions at once']"`

	// Edge cases.
	UrgentRequest          bool     `json:"urgent_request" jsonschema_description:"Whether the user indicated urgency"`
	UrgentHandledCorrectly *bool    `json:"urgent_handled_correctly" jsonschema_description:"If urgent, whether the urgent protocol was followed (quick triage, ticket, close)"`
	MultiIssueConversation bool     `json:"multi_issue_conversation" jsonschema_description:"Whether the user raised multiple separate issues"`
	SecondaryIssues        []string `json:"secondary_issues" jsonschema_description:"Secondary issues raised when multi_issue_conversation is true"`
	ThirdPartyRequest      bool     `json:"third_party_request" jsonschema_description:"Whether the caller was calling on behalf of someone else"`
	TechnicalConfusion     bool     `json:"technical_confusion" jsonschema_description:"Whether the user was confused by technical terms"`

	AdditionalNotes *string `json:"additional_notes" validate:"omitempty,max=500" jsonschema:"maxLength=500" jsonschema_description:"Anything notable the other fields do not capture"`
}

// Escalated reports whether the conversation was handed to a human.
func (r *Record) Escalated() bool {
	return r.ResolutionStatus == StatusEscalatedToHuman || r.EscalationReason != EscalationNotEscalated
}

// NeedsAttention reports whether the outcome should be surfaced to the
// support team: a bot failure or a very dissatisfied user.
func (r *Record) NeedsAttention() bool {
	return r.ResolutionStatus == StatusBotFailure || r.UserSentiment == SentimentVeryDissatisfied
}
