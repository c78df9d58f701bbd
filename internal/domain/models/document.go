package models

import "time"

// Document is a collaboratively edited document plus the access state
// the engine derives for it: stored per-action level strings (opaque to
// the host, resolved by the access package) and the single indexed
// access marker used by listing queries.
type Document struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`

	// GroupID is the associated group, nil when the document is not
	// group-linked.
	GroupID *string `json:"group_id,omitempty"`

	// Settings holds the stored (not resolved) level strings keyed by
	// action name. Absent keys mean "use the computed default".
	Settings map[string]string `json:"-"`

	// AccessMarker is derived from the resolved read level on every
	// settings save. Never written directly by handlers.
	AccessMarker string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
