package repositories

import (
	"context"

	"docgate/internal/domain/models"
)

// DocumentRepository persists documents, their stored access settings,
// and the indexed access marker.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error

	// GetByID returns the document with its stored settings loaded.
	// Returns domain.ErrNotFound (wrapped) when missing.
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// UpdateContent writes title/content and bumps updated_at.
	UpdateContent(ctx context.Context, doc *models.Document) error

	Delete(ctx context.Context, id string) error

	// SetGroup updates the document's group association; nil clears it.
	SetGroup(ctx context.Context, docID string, groupID *string) error

	// SetSettings replaces the document's stored level strings.
	SetSettings(ctx context.Context, docID string, settings map[string]string) error

	// SetMarker replaces the document's access marker.
	SetMarker(ctx context.Context, docID string, marker string) error

	// ListByMarkers returns documents whose marker is in the given set,
	// newest first. This is the inclusion-filter path: the membership
	// test runs in the database, never per row in Go.
	ListByMarkers(ctx context.Context, markers []string) ([]*models.Document, error)

	// ListAll returns every document, newest first. Super-moderator
	// listings only.
	ListAll(ctx context.Context) ([]*models.Document, error)

	// ExcludedIDs returns the ids of documents whose marker is NOT in
	// the given set, the subtraction form for queries that cannot
	// attach a positive marker filter.
	ExcludedIDs(ctx context.Context, markers []string) ([]string, error)
}
