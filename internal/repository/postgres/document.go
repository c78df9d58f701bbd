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

// PostgresDocumentRepository implements the DocumentRepository interface.
// Documents carry an indexed access_marker column; stored per-action
// level strings live in a side table keyed by (doc_id, action), absent
// rows meaning "default".
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new document row. Settings rows are written
// separately via SetSettings.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, author_id, title, content, group_id, access_marker, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ID,
		doc.AuthorID,
		doc.Title,
		doc.Content,
		doc.GroupID,
		doc.AccessMarker,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document %s already exists", doc.ID),
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document and its stored settings.
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, author_id, title, content, group_id, access_marker, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Documents)

	var doc models.Document
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.AuthorID,
		&doc.Title,
		&doc.Content,
		&doc.GroupID,
		&doc.AccessMarker,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	settings, err := r.loadSettings(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Settings = settings

	return &doc, nil
}

func (r *PostgresDocumentRepository) loadSettings(ctx context.Context, docID string) (map[string]string, error) {
	query := fmt.Sprintf(`
		SELECT action, level
		FROM %s
		WHERE doc_id = $1
	`, r.tables.DocumentSettings)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("load settings for document %s: %w", docID, err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var action, level string
		if err := rows.Scan(&action, &level); err != nil {
			return nil, fmt.Errorf("scan setting row: %w", err)
		}
		settings[action] = level
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	return settings, nil
}

// UpdateContent writes title and content.
func (r *PostgresDocumentRepository) UpdateContent(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $2, content = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, doc.ID, doc.Title, doc.Content).Scan(&doc.UpdatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

// Delete removes the document and its settings rows.
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.pool)

	settingsQuery := fmt.Sprintf(`DELETE FROM %s WHERE doc_id = $1`, r.tables.DocumentSettings)
	if _, err := executor.Exec(ctx, settingsQuery, id); err != nil {
		return fmt.Errorf("delete settings for document %s: %w", id, err)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SetGroup updates the document's group association.
func (r *PostgresDocumentRepository) SetGroup(ctx context.Context, docID string, groupID *string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET group_id = $2, updated_at = now() WHERE id = $1
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, docID, groupID)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("group does not exist: %w", domain.ErrValidation)
		}
		return fmt.Errorf("set group for document %s: %w", docID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}
	return nil
}

// SetSettings replaces the document's stored level strings.
func (r *PostgresDocumentRepository) SetSettings(ctx context.Context, docID string, settings map[string]string) error {
	executor := GetExecutor(ctx, r.pool)

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE doc_id = $1`, r.tables.DocumentSettings)
	if _, err := executor.Exec(ctx, deleteQuery, docID); err != nil {
		return fmt.Errorf("clear settings for document %s: %w", docID, err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (doc_id, action, level) VALUES ($1, $2, $3)
	`, r.tables.DocumentSettings)
	for action, level := range settings {
		if level == "" {
			continue
		}
		if _, err := executor.Exec(ctx, insertQuery, docID, action, level); err != nil {
			return fmt.Errorf("store setting %s for document %s: %w", action, docID, err)
		}
	}
	return nil
}

// SetMarker replaces the document's access marker.
func (r *PostgresDocumentRepository) SetMarker(ctx context.Context, docID string, marker string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET access_marker = $2 WHERE id = $1
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, docID, marker)
	if err != nil {
		return fmt.Errorf("set marker for document %s: %w", docID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}
	return nil
}

// ListByMarkers returns documents whose marker is in the given set. The
// access_marker column is indexed, so this is the bulk visibility path:
// no per-row business logic runs here or anywhere downstream.
func (r *PostgresDocumentRepository) ListByMarkers(ctx context.Context, markers []string) ([]*models.Document, error) {
	if len(markers) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, author_id, title, content, group_id, access_marker, created_at, updated_at
		FROM %s
		WHERE access_marker = ANY($1)
		ORDER BY updated_at DESC
	`, r.tables.Documents)

	return r.queryDocuments(ctx, query, markers)
}

// ListAll returns every document, newest first.
func (r *PostgresDocumentRepository) ListAll(ctx context.Context) ([]*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, author_id, title, content, group_id, access_marker, created_at, updated_at
		FROM %s
		ORDER BY updated_at DESC
	`, r.tables.Documents)

	return r.queryDocuments(ctx, query)
}

// ExcludedIDs returns ids of documents whose marker is NOT in the given
// set, the complement of ListByMarkers over the whole corpus.
func (r *PostgresDocumentRepository) ExcludedIDs(ctx context.Context, markers []string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s WHERE NOT (access_marker = ANY($1))
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, markers)
	if err != nil {
		return nil, fmt.Errorf("query excluded ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan excluded id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate excluded ids: %w", err)
	}
	return ids, nil
}

func (r *PostgresDocumentRepository) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]*models.Document, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID,
			&doc.AuthorID,
			&doc.Title,
			&doc.Content,
			&doc.GroupID,
			&doc.AccessMarker,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
