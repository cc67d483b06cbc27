package store

// Character name values. The column is a free-form role label; these two are
// the ones the service writes.
const (
	CharacterUser      = "user"
	CharacterAssistant = "assistant"
)

// Message is a single turn's text, tagged with its originating role.
// Ordering within a session is by ascending ID (insertion order), not by
// CreatedTs. Messages are never physically removed; deletion flips IsDeleted.
type Message struct {
	ID            int32
	UID           string
	SessionID     int32
	CharacterName string
	Content       string
	CreatedTs     int64
	IsDeleted     bool
}

type FindMessage struct {
	ID        *int32
	UID       *string
	SessionID *int32
	// ExcludeDeleted drops soft-deleted rows from the result.
	ExcludeDeleted bool
}

type UpdateMessage struct {
	ID        int32
	IsDeleted *bool
}
