package access

import "context"

// GroupRole is a user's standing within a group, ordered so that a
// comparison expresses "at least this role".
type GroupRole int

const (
	GroupRoleNone GroupRole = iota
	GroupRoleMember
	GroupRoleModerator
	GroupRoleAdmin
)

// String returns the storage representation of the role.
func (r GroupRole) String() string {
	switch r {
	case GroupRoleMember:
		return "member"
	case GroupRoleModerator:
		return "moderator"
	case GroupRoleAdmin:
		return "admin"
	default:
		return "none"
	}
}

// ParseGroupRole decodes a stored role string. Unknown strings map to
// GroupRoleNone.
func ParseGroupRole(s string) GroupRole {
	switch s {
	case "member":
		return GroupRoleMember
	case "moderator":
		return GroupRoleModerator
	case "admin":
		return GroupRoleAdmin
	}
	return GroupRoleNone
}

// GroupRelations maps group id to the viewer's highest role in that group.
type GroupRelations map[string]GroupRole

func (g GroupRelations) IsMember(groupID string) bool {
	return g[groupID] >= GroupRoleMember
}

func (g GroupRelations) IsModerator(groupID string) bool {
	return g[groupID] >= GroupRoleModerator
}

func (g GroupRelations) IsAdmin(groupID string) bool {
	return g[groupID] >= GroupRoleAdmin
}

// Viewer is the requesting identity plus its group relationships. The
// engine takes it as an explicit parameter on every call; there is no
// ambient current-user state.
type Viewer struct {
	ID            string
	Authenticated bool

	// SuperModerator bypasses every document-level rule.
	SuperModerator bool

	Groups GroupRelations
}

// Anonymous is the viewer for unauthenticated requests.
func Anonymous() Viewer {
	return Viewer{Groups: GroupRelations{}}
}

// GroupRelationProvider supplies a user's group relations. Lookups are
// the engine's dominant external cost; callers resolve them once per
// request and carry the result in the Viewer.
type GroupRelationProvider interface {
	RelationsFor(ctx context.Context, userID string) (GroupRelations, error)
}

// Group is the slice of group state the engine needs: visibility for
// registry defaults and the minimum role allowed to create documents in
// the group.
type Group struct {
	ID        string
	Public    bool
	CanCreate GroupRole
}

// Doc is the engine's view of a document: identity, authorship, the
// associated group (empty when none), and the stored per-action level
// strings as persisted by the host.
type Doc struct {
	ID       string
	AuthorID string
	GroupID  string
	Stored   map[Action]string
}
