package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"docgate/internal/domain"
	"docgate/internal/domain/models"
	"docgate/internal/domain/repositories"
)

// PostgresGroupRepository implements the GroupRepository interface.
type PostgresGroupRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

func NewGroupRepository(config *RepositoryConfig) repositories.GroupRepository {
	return &PostgresGroupRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func (r *PostgresGroupRepository) Create(ctx context.Context, group *models.Group) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, slug, public, can_create, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING created_at
	`, r.tables.Groups)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		group.ID,
		group.Name,
		group.Slug,
		group.Public,
		group.CanCreate,
	).Scan(&group.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("group %q already exists", group.Slug),
				ResourceType: "group",
				ResourceID:   group.ID,
			}
		}
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *PostgresGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	query := fmt.Sprintf(`
		SELECT id, name, slug, public, can_create, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Groups)

	var group models.Group
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Slug,
		&group.Public,
		&group.CanCreate,
		&group.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &group, nil
}
