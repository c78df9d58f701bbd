package access

// CapabilityMapper answers the point query: can this viewer perform this
// action on this document. It is a pure function of its inputs.
type CapabilityMapper struct {
	resolver *Resolver
}

func NewCapabilityMapper(resolver *Resolver) *CapabilityMapper {
	return &CapabilityMapper{resolver: resolver}
}

// CanPerform reports whether the viewer may perform action on doc.
// group is the document's associated group, nil when there is none;
// callers pre-validate document existence.
func (m *CapabilityMapper) CanPerform(viewer Viewer, action Action, doc Doc, group *Group) bool {
	// Administrative override. Intentionally unconditional: nothing a
	// document owner configures, including no-one, filters it away.
	if viewer.SuperModerator {
		return true
	}

	level := m.resolver.Resolve(doc, group)[action]

	// A group-scoped level on a document with no live group association
	// means unlink never ran. Fail closed, never open.
	if level.GroupScoped() && (group == nil || level.GroupID == "") {
		return false
	}

	switch level.Kind {
	case KindAnyone:
		return true
	case KindLoggedIn:
		return viewer.Authenticated
	case KindCreator:
		return viewer.Authenticated && viewer.ID == doc.AuthorID
	case KindNoOne:
		return false
	case KindCustom:
		return viewer.Authenticated && level.Allows(viewer.ID)
	case KindGroupMembers:
		return viewer.Groups.IsMember(level.GroupID)
	case KindAdminsMods:
		return viewer.Groups.IsModerator(level.GroupID)
	}
	return false
}

// CanCreate evaluates creation, which has no document: any authenticated
// user may create an unassociated document, and group-scoped creation
// requires at least the group's configured minimum role.
func (m *CapabilityMapper) CanCreate(viewer Viewer, group *Group) bool {
	if viewer.SuperModerator {
		return true
	}
	if !viewer.Authenticated {
		return false
	}
	if group == nil {
		return true
	}

	minRole := group.CanCreate
	if minRole == GroupRoleNone {
		minRole = GroupRoleMember
	}
	return viewer.Groups[group.ID] >= minRole
}
