package access

import (
	"sort"
	"strings"
)

// Kind identifies which rule an access level applies.
type Kind string

const (
	KindAnyone       Kind = "anyone"
	KindLoggedIn     Kind = "loggedin"
	KindCreator      Kind = "creator"
	KindNoOne        Kind = "no-one"
	KindGroupMembers Kind = "group-members"
	KindAdminsMods   Kind = "admins-mods"
	KindCustom       Kind = "custom"
)

// customPrefix is the storage-string prefix for custom allow-lists,
// e.g. "custom:alice,bob".
const customPrefix = "custom:"

// Level is the rule governing who satisfies an action on a document.
// It is a tagged value: GroupID is meaningful only for the group-scoped
// kinds, UserIDs only for KindCustom.
type Level struct {
	Kind    Kind
	GroupID string
	UserIDs []string
}

func Anyone() Level   { return Level{Kind: KindAnyone} }
func LoggedIn() Level { return Level{Kind: KindLoggedIn} }
func Creator() Level  { return Level{Kind: KindCreator} }
func NoOne() Level    { return Level{Kind: KindNoOne} }

func GroupMembers(groupID string) Level {
	return Level{Kind: KindGroupMembers, GroupID: groupID}
}

func AdminsMods(groupID string) Level {
	return Level{Kind: KindAdminsMods, GroupID: groupID}
}

func Custom(userIDs ...string) Level {
	ids := append([]string(nil), userIDs...)
	sort.Strings(ids)
	return Level{Kind: KindCustom, UserIDs: ids}
}

// GroupScoped reports whether the level only makes sense for a document
// associated with a group.
func (l Level) GroupScoped() bool {
	return l.Kind == KindGroupMembers || l.Kind == KindAdminsMods
}

// Allows reports whether userID is on a custom allow-list. Always false
// for non-custom levels.
func (l Level) Allows(userID string) bool {
	if l.Kind != KindCustom {
		return false
	}
	for _, id := range l.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Encode returns the storage form of the level. Group scope is not
// encoded: the document's associated group is the only group a stored
// level can refer to, so the stored string carries the kind alone.
func (l Level) Encode() string {
	if l.Kind == KindCustom {
		return customPrefix + strings.Join(l.UserIDs, ",")
	}
	return string(l.Kind)
}

// ParseLevel decodes a stored level string. Group-scoped kinds are bound
// to groupID (the document's associated group, possibly empty when the
// association is gone; callers fail closed on that). The boolean is
// false for unrecognized strings; the empty string is "absent", also
// reported as false so callers fall back to the computed default.
func ParseLevel(s, groupID string) (Level, bool) {
	if strings.HasPrefix(s, customPrefix) {
		list := strings.TrimPrefix(s, customPrefix)
		if list == "" {
			return Custom(), true
		}
		return Custom(strings.Split(list, ",")...), true
	}

	switch Kind(s) {
	case KindAnyone:
		return Anyone(), true
	case KindLoggedIn:
		return LoggedIn(), true
	case KindCreator:
		return Creator(), true
	case KindNoOne:
		return NoOne(), true
	case KindGroupMembers:
		return GroupMembers(groupID), true
	case KindAdminsMods:
		return AdminsMods(groupID), true
	}
	return Level{}, false
}
