package access

import "strings"

// Marker is the durable, index-friendly representation of a document's
// read level. Exactly one marker is attached per document; listing
// queries test it for membership in a viewer's inclusion filter instead
// of re-running business logic per row.
type Marker string

const (
	MarkerAnyone   Marker = "anyone"
	MarkerLoggedIn Marker = "loggedin"

	markerUserPrefix          = "user_"
	markerGroupMemberPrefix   = "group_member_"
	markerGroupAdminModPrefix = "group_adminmod_"
)

// UserMarker is the marker granting listing visibility to a single user.
func UserMarker(userID string) Marker {
	return Marker(markerUserPrefix + userID)
}

func GroupMemberMarker(groupID string) Marker {
	return Marker(markerGroupMemberPrefix + groupID)
}

func GroupAdminModMarker(groupID string) Marker {
	return Marker(markerGroupAdminModPrefix + groupID)
}

// MarkerFor derives the single marker for a document's resolved read
// level.
//
// creator and no-one both collapse to the author's user marker: "nobody
// at all" is not expressible as a listing shortcut without also hiding
// the document from its author, so the marker narrows to author-only and
// the per-object check remains authoritative for no-one. The marker
// over-grants listing visibility slightly in that case; that is the
// intended trade, not a bug. custom collapses the same way: allow-list
// members rely on the point check, the author keeps listing visibility.
//
// A group-scoped level with no group id is a data-integrity anomaly;
// it maps to the author marker so the document never becomes
// world-listable by accident.
func MarkerFor(readLevel Level, authorID string) Marker {
	switch readLevel.Kind {
	case KindAnyone:
		return MarkerAnyone
	case KindLoggedIn:
		return MarkerLoggedIn
	case KindGroupMembers:
		if readLevel.GroupID == "" {
			return UserMarker(authorID)
		}
		return GroupMemberMarker(readLevel.GroupID)
	case KindAdminsMods:
		if readLevel.GroupID == "" {
			return UserMarker(authorID)
		}
		return GroupAdminModMarker(readLevel.GroupID)
	default:
		// creator, no-one, custom, and anything unrecognized.
		return UserMarker(authorID)
	}
}

// IsUserMarker reports whether the marker is a single-user grant.
func (m Marker) IsUserMarker() bool {
	return strings.HasPrefix(string(m), markerUserPrefix)
}
