package access

// Settings is a document's fully resolved per-action access levels.
// It is total: every known action has a level.
type Settings map[Action]Level

// Strings returns the storage form of the settings, suitable for
// persisting and for feeding back into Verify.
func (s Settings) Strings() map[Action]string {
	out := make(map[Action]string, len(s))
	for a, l := range s {
		out[a] = l.Encode()
	}
	return out
}

// Resolver merges stored per-action settings with computed defaults and
// validates submitted settings against the registry. It performs no I/O.
type Resolver struct {
	registry *Registry
}

func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns the document's effective settings. Absent, empty, or
// unparseable stored values fall back to the computed default, so the
// result is always total. An empty stored string is treated as absent,
// never as an intentional deny.
func (r *Resolver) Resolve(doc Doc, group *Group) Settings {
	settings := make(Settings, len(Actions))
	for _, a := range Actions {
		settings[a] = r.resolveOne(a, doc, group)
	}
	return settings
}

func (r *Resolver) resolveOne(action Action, doc Doc, group *Group) Level {
	stored := doc.Stored[action]
	if stored == "" {
		return DefaultLevel(action, group)
	}
	l, ok := ParseLevel(stored, doc.GroupID)
	if !ok {
		return DefaultLevel(action, group)
	}
	return l
}

// Verify validates submitted level strings against the allowed options
// for each action. Values that match no option are replaced with the
// action's default and reported via changed=true, so callers can warn
// the submitter without failing the save. Absent actions resolve to the
// default silently. Verify never persists anything.
func (r *Resolver) Verify(submitted map[Action]string, doc Doc, group *Group, requester Viewer) (Settings, bool) {
	// Match the registry's view: a requester outside the group is never
	// offered group options, so defaults must not be group-scoped either
	// or a second Verify of the result would report spurious changes.
	if group != nil && !requester.Groups.IsMember(group.ID) {
		group = nil
	}

	validated := make(Settings, len(Actions))
	changed := false

	for _, a := range Actions {
		raw := submitted[a]
		if raw == "" {
			validated[a] = DefaultLevel(a, group)
			continue
		}

		l, ok := ParseLevel(raw, doc.GroupID)
		if ok && l.Kind == KindCustom && !r.registry.AllowCustom {
			ok = false
		}
		if !ok || !r.registry.permits(a, group, requester, l) {
			validated[a] = DefaultLevel(a, group)
			changed = true
			continue
		}
		validated[a] = l
	}

	return validated, changed
}
