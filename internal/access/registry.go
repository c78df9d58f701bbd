package access

// Option is one selectable access level for an action, as offered to a
// settings form.
type Option struct {
	Level   Level
	Label   string
	Default bool
}

// Registry enumerates the allowed access levels per action and their
// default selection, optionally scoped to an associated group.
type Registry struct {
	// AllowCustom exposes explicit per-user allow-lists as a settings
	// option. Deployments without a user picker leave it off; Verify
	// then corrects submitted custom levels to the action default.
	AllowCustom bool
}

func NewRegistry(allowCustom bool) *Registry {
	return &Registry{AllowCustom: allowCustom}
}

// DefaultLevel computes the level an action falls back to when nothing
// valid is stored. With an associated group the default shifts to
// group-members when the group is non-public, and always for edit and
// post_comments. Without a group: read-type actions default to anyone,
// edit to loggedin, manage to creator.
func DefaultLevel(action Action, group *Group) Level {
	if group != nil && (!group.Public || action == ActionEdit || action == ActionPostComments) {
		return GroupMembers(group.ID)
	}

	switch action {
	case ActionRead, ActionReadComments, ActionPostComments, ActionViewHistory:
		return Anyone()
	case ActionEdit:
		return LoggedIn()
	case ActionManage:
		return Creator()
	}
	return LoggedIn()
}

// LevelsFor returns the ordered option list for an action. Group options
// are appended only when a group is supplied and the requester belongs to
// it; the admins-mods option additionally requires the requester to be a
// moderator or admin of that group. Unknown actions get the base list
// with no group options.
func (r *Registry) LevelsFor(action Action, group *Group, requester Viewer) []Option {
	// Unknown actions get the base list only. Requesters outside the
	// group cannot associate the document with it, so they never see
	// group-scoped options either.
	if !action.Valid() {
		group = nil
	}
	if group != nil && !requester.Groups.IsMember(group.ID) {
		group = nil
	}

	def := DefaultLevel(action, group)

	var opts []Option
	switch action {
	case ActionRead, ActionReadComments, ActionPostComments, ActionViewHistory:
		opts = append(opts, Option{Level: Anyone(), Label: "Anyone"})
	}
	opts = append(opts,
		Option{Level: LoggedIn(), Label: "Logged-in users"},
		Option{Level: Creator(), Label: "The document author only"},
	)

	if group != nil {
		opts = append(opts, Option{Level: GroupMembers(group.ID), Label: "Group members"})
		if requester.Groups.IsModerator(group.ID) {
			opts = append(opts, Option{Level: AdminsMods(group.ID), Label: "Group admins and mods"})
		}
	}

	if r.AllowCustom {
		opts = append(opts, Option{Level: Custom(), Label: "Specific users"})
	}
	opts = append(opts, Option{Level: NoOne(), Label: "Nobody"})

	for i := range opts {
		opts[i].Default = opts[i].Level.Kind == def.Kind
	}
	return opts
}

// permits reports whether a submitted level matches one of the options.
// Custom matches by kind alone: the allow-list contents are free-form,
// the option only gates whether custom is available at all.
func (r *Registry) permits(action Action, group *Group, requester Viewer, l Level) bool {
	for _, opt := range r.LevelsFor(action, group, requester) {
		if opt.Level.Kind != l.Kind {
			continue
		}
		if l.GroupScoped() && opt.Level.GroupID != l.GroupID {
			continue
		}
		return true
	}
	return false
}
