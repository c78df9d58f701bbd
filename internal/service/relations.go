package service

import (
	"context"
	"fmt"

	"docgate/internal/access"
	"docgate/internal/domain/repositories"
)

// groupRelationService implements access.GroupRelationProvider on the
// membership repository. The auth middleware calls it once per request
// and carries the result in the Viewer; nothing caches across requests.
type groupRelationService struct {
	members repositories.MembershipRepository
}

func NewGroupRelationService(members repositories.MembershipRepository) access.GroupRelationProvider {
	return &groupRelationService{members: members}
}

// RelationsFor maps the user's membership rows to the engine's
// group→role view, keeping the highest role per group.
func (s *groupRelationService) RelationsFor(ctx context.Context, userID string) (access.GroupRelations, error) {
	memberships, err := s.members.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load group relations for user %s: %w", userID, err)
	}

	relations := make(access.GroupRelations, len(memberships))
	for _, m := range memberships {
		role := access.ParseGroupRole(m.Role)
		if role > relations[m.GroupID] {
			relations[m.GroupID] = role
		}
	}
	return relations, nil
}
