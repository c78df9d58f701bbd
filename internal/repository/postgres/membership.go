package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"docgate/internal/domain/models"
	"docgate/internal/domain/repositories"
)

// PostgresMembershipRepository implements the MembershipRepository
// interface. The relations query it backs is the engine's dominant
// external cost; callers memoize the result per request.
type PostgresMembershipRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

func NewMembershipRepository(config *RepositoryConfig) repositories.MembershipRepository {
	return &PostgresMembershipRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func (r *PostgresMembershipRepository) Upsert(ctx context.Context, m *models.Membership) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (group_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, r.tables.GroupMembers)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, m.GroupID, m.UserID, m.Role); err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

func (r *PostgresMembershipRepository) ListForUser(ctx context.Context, userID string) ([]*models.Membership, error) {
	query := fmt.Sprintf(`
		SELECT group_id, user_id, role
		FROM %s
		WHERE user_id = $1
	`, r.tables.GroupMembers)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships for user %s: %w", userID, err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Role); err != nil {
			return nil, fmt.Errorf("scan membership row: %w", err)
		}
		memberships = append(memberships, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return memberships, nil
}
