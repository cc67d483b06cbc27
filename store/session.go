package store

// Session is a named, independently-ordered conversation thread.
// Sessions are never physically removed; deletion flips Active to false.
type Session struct {
	ID        int32
	UID       string
	Name      string
	Active    bool
	CreatedTs int64
}

type FindSession struct {
	ID     *int32
	UID    *string
	Active *bool
}

type UpdateSession struct {
	ID     int32
	Name   *string
	Active *bool
}
