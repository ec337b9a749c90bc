package constant

// Message roles as persisted in chat transcripts.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Intent values a user may declare on the first message of a session.
const (
	IntentFinancial = "financiera"
	IntentLegal     = "legal"
)

// IntentMessagePrefix marks the system message that records a declared intent.
const IntentMessagePrefix = "intent:"
