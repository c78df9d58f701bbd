package access

import (
	"context"
	"fmt"
)

// SyncStore persists the durable side of a settings change: the stored
// level strings and the document's single read-scope marker. Both calls
// run inside whatever transaction the document save itself uses; the
// engine defines no locking of its own.
type SyncStore interface {
	// SetStoredLevels replaces the document's stored per-action levels.
	SetStoredLevels(ctx context.Context, docID string, levels map[Action]string) error

	// SetMarker replaces the document's read-scope marker. A document
	// has exactly one at a time.
	SetMarker(ctx context.Context, docID string, marker Marker) error
}

// Synchronizer keeps a document's queryable marker in step with its
// resolved read level. Sync must commit before the enclosing save
// returns success, so listings never observe settings ahead of the
// marker.
type Synchronizer struct {
	resolver *Resolver
	store    SyncStore
}

func NewSynchronizer(resolver *Resolver, store SyncStore) *Synchronizer {
	return &Synchronizer{resolver: resolver, store: store}
}

// Sync recomputes the marker for the document's effective read level and
// attaches it, replacing any previous read-scope marker. Idempotent.
func (s *Synchronizer) Sync(ctx context.Context, doc Doc, group *Group) (Marker, error) {
	level := s.resolver.Resolve(doc, group)[ActionRead]
	marker := MarkerFor(level, doc.AuthorID)
	if err := s.store.SetMarker(ctx, doc.ID, marker); err != nil {
		return "", fmt.Errorf("set marker for document %s: %w", doc.ID, err)
	}
	return marker, nil
}

// Unlink handles removal of the document's group association: every
// group-scoped stored level is reset to creator, then the marker is
// recomputed from the reset settings. The order matters: resetting
// first guarantees a previously group-restricted document can only
// narrow to author-only, never widen to world-readable. The returned
// Doc carries the rewritten stored levels and no group.
func (s *Synchronizer) Unlink(ctx context.Context, doc Doc) (Doc, Marker, error) {
	reset := make(map[Action]string, len(doc.Stored))
	for a, raw := range doc.Stored {
		if l, ok := ParseLevel(raw, doc.GroupID); ok && l.GroupScoped() {
			reset[a] = Creator().Encode()
			continue
		}
		reset[a] = raw
	}

	if err := s.store.SetStoredLevels(ctx, doc.ID, reset); err != nil {
		return doc, "", fmt.Errorf("reset levels for document %s: %w", doc.ID, err)
	}

	doc.Stored = reset
	doc.GroupID = ""

	marker, err := s.Sync(ctx, doc, nil)
	if err != nil {
		return doc, "", err
	}
	return doc, marker, nil
}
