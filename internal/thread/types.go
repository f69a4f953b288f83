// Package thread loads helpdesk conversations from the conversation store and
// normalizes them into an ordered role/content list.
package thread

// Role attributes a turn to the user or the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two conversation roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn of a conversation. Content is never empty.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ContentKind tags a content fragment of a stored message.
type ContentKind string

const (
	ContentText      ContentKind = "text"
	ContentImageFile ContentKind = "image_file"
	ContentOther     ContentKind = "other"
)

// ContentPart is one fragment of a stored message. Text is set only for
// ContentText parts.
type ContentPart struct {
	Kind ContentKind
	Text string
}

// RawMessage is a message record as returned by the conversation store.
type RawMessage struct {
	ID      string
	Role    Role
	Content []ContentPart
}
