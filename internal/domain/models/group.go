package models

import "time"

// Group is a membership scope documents can be associated with.
type Group struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Public bool   `json:"public"`

	// CanCreate is the minimum role allowed to create documents in this
	// group: "member", "moderator", or "admin".
	CanCreate string `json:"can_create"`

	CreatedAt time.Time `json:"created_at"`
}

// Membership is the join between users and groups. One row per
// (group_id, user_id); role is a scalar.
type Membership struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`

	// Role is "member", "moderator", or "admin".
	Role string `json:"role"`
}
