package access

import "sort"

// DocRef is the corpus row shape the set query operates on: document id
// plus its attached marker.
type DocRef struct {
	ID     string
	Marker Marker
}

// InclusionFilter returns the set of markers that make a document
// visible to the viewer in listings. The result is a membership test
// ("document's marker ∈ this set"); order carries no meaning but is
// sorted for determinism.
//
// Super-moderators are the caller's responsibility: check the flag
// before building a filter at all. The builder stays a pure function of
// viewer identity and group relations.
func InclusionFilter(viewer Viewer) []Marker {
	markers := []Marker{MarkerAnyone}

	if viewer.Authenticated {
		markers = append(markers, MarkerLoggedIn, UserMarker(viewer.ID))
	}

	for groupID, role := range viewer.Groups {
		if role < GroupRoleMember {
			continue
		}
		markers = append(markers, GroupMemberMarker(groupID))
		if role >= GroupRoleModerator {
			markers = append(markers, GroupAdminModMarker(groupID))
		}
	}

	sort.Slice(markers, func(i, j int) bool { return markers[i] < markers[j] })
	return markers
}

// ExclusionIDs computes the complement of the inclusion filter over a
// corpus: the ids of every document whose marker the viewer does not
// hold. Listing contexts that cannot attach a positive marker filter to
// an already-composed query subtract this set instead. For any document
// d, d.Marker ∈ InclusionFilter(v) ⇔ d.ID ∉ ExclusionIDs(v, corpus).
func ExclusionIDs(viewer Viewer, corpus []DocRef) []string {
	included := make(map[Marker]struct{})
	for _, m := range InclusionFilter(viewer) {
		included[m] = struct{}{}
	}

	var excluded []string
	for _, d := range corpus {
		if _, ok := included[d.Marker]; !ok {
			excluded = append(excluded, d.ID)
		}
	}
	return excluded
}
