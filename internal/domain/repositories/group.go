package repositories

import (
	"context"

	"docgate/internal/domain/models"
)

// GroupRepository persists groups.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error

	// GetByID returns domain.ErrNotFound (wrapped) when missing.
	GetByID(ctx context.Context, id string) (*models.Group, error)
}

// MembershipRepository persists the user↔group join and answers the
// relations query the access engine depends on.
type MembershipRepository interface {
	// Upsert creates or replaces the membership row for
	// (group_id, user_id).
	Upsert(ctx context.Context, m *models.Membership) error

	// ListForUser returns every membership the user holds.
	ListForUser(ctx context.Context, userID string) ([]*models.Membership, error)
}
