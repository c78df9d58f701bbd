package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"docgate/internal/access"
	"docgate/internal/domain"
	"docgate/internal/domain/models"
	"docgate/internal/domain/repositories"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// DocumentService is the host-side consumer of the access engine: every
// operation resolves the viewer's capability first, and every settings
// write re-synchronizes the document's marker inside the same
// transaction.
type DocumentService struct {
	docRepo   repositories.DocumentRepository
	groupRepo repositories.GroupRepository
	txManager repositories.TransactionManager

	registry *access.Registry
	resolver *access.Resolver
	caps     *access.CapabilityMapper
	sync     *access.Synchronizer

	logger *slog.Logger
}

func NewDocumentService(
	docRepo repositories.DocumentRepository,
	groupRepo repositories.GroupRepository,
	txManager repositories.TransactionManager,
	registry *access.Registry,
	logger *slog.Logger,
) *DocumentService {
	resolver := access.NewResolver(registry)
	return &DocumentService{
		docRepo:   docRepo,
		groupRepo: groupRepo,
		txManager: txManager,
		registry:  registry,
		resolver:  resolver,
		caps:      access.NewCapabilityMapper(resolver),
		sync:      access.NewSynchronizer(resolver, &syncStore{docRepo: docRepo}),
		logger:    logger,
	}
}

// syncStore adapts the document repository to the engine's SyncStore.
type syncStore struct {
	docRepo repositories.DocumentRepository
}

func (s *syncStore) SetStoredLevels(ctx context.Context, docID string, levels map[access.Action]string) error {
	return s.docRepo.SetSettings(ctx, docID, stringKeys(levels))
}

func (s *syncStore) SetMarker(ctx context.Context, docID string, marker access.Marker) error {
	return s.docRepo.SetMarker(ctx, docID, string(marker))
}

// engineDoc converts the persistence model to the engine's view.
func engineDoc(doc *models.Document) access.Doc {
	stored := make(map[access.Action]string, len(doc.Settings))
	for k, v := range doc.Settings {
		if a, ok := access.ParseAction(k); ok {
			stored[a] = v
		}
	}
	groupID := ""
	if doc.GroupID != nil {
		groupID = *doc.GroupID
	}
	return access.Doc{
		ID:       doc.ID,
		AuthorID: doc.AuthorID,
		GroupID:  groupID,
		Stored:   stored,
	}
}

func engineGroup(g *models.Group) *access.Group {
	if g == nil {
		return nil
	}
	return &access.Group{
		ID:        g.ID,
		Public:    g.Public,
		CanCreate: access.ParseGroupRole(g.CanCreate),
	}
}

func stringKeys(levels map[access.Action]string) map[string]string {
	out := make(map[string]string, len(levels))
	for a, l := range levels {
		out[string(a)] = l
	}
	return out
}

func markerStrings(markers []access.Marker) []string {
	out := make([]string, len(markers))
	for i, m := range markers {
		out[i] = string(m)
	}
	return out
}

// loadGroup fetches the document's associated group. A dangling group id
// (row deleted without unlink) yields nil; the capability mapper fails
// closed on group-scoped levels in that case.
func (s *DocumentService) loadGroup(ctx context.Context, doc *models.Document) (*models.Group, error) {
	if doc.GroupID == nil {
		return nil, nil
	}
	group, err := s.groupRepo.GetByID(ctx, *doc.GroupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("document references missing group",
				"doc_id", doc.ID,
				"group_id", *doc.GroupID,
			)
			return nil, nil
		}
		return nil, err
	}
	return group, nil
}

// require loads the document plus group and checks a single capability.
func (s *DocumentService) require(ctx context.Context, viewer access.Viewer, docID string, action access.Action) (*models.Document, *models.Group, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	group, err := s.loadGroup(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	if !s.caps.CanPerform(viewer, action, engineDoc(doc), engineGroup(group)) {
		return nil, nil, &domain.ForbiddenError{
			Message: fmt.Sprintf("not allowed to %s this document", action),
		}
	}
	return doc, group, nil
}

// CreateDocumentRequest carries a document creation payload.
type CreateDocumentRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	GroupID *string `json:"group_id"`
}

func (r *CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Content, validation.Length(0, 1<<20)),
	)
}

// Create makes a new document. Creation is evaluated without a document:
// any authenticated viewer may create an unassociated doc, group-scoped
// creation honors the group's minimum role. The marker is computed from
// the default settings before insert so the row is never listable in a
// wrong state.
func (s *DocumentService) Create(ctx context.Context, viewer access.Viewer, req *CreateDocumentRequest) (*models.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	var group *models.Group
	if req.GroupID != nil && *req.GroupID != "" {
		g, err := s.groupRepo.GetByID(ctx, *req.GroupID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.ValidationError{Message: "group does not exist"}
			}
			return nil, err
		}
		group = g
	}

	if !s.caps.CanCreate(viewer, engineGroup(group)) {
		return nil, &domain.ForbiddenError{Message: "not allowed to create documents here"}
	}

	doc := &models.Document{
		ID:       uuid.NewString(),
		AuthorID: viewer.ID,
		Title:    req.Title,
		Content:  req.Content,
		Settings: map[string]string{},
	}
	if group != nil {
		doc.GroupID = &group.ID
	}

	readLevel := s.resolver.Resolve(engineDoc(doc), engineGroup(group))[access.ActionRead]
	doc.AccessMarker = string(access.MarkerFor(readLevel, doc.AuthorID))

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"doc_id", doc.ID,
		"author_id", doc.AuthorID,
		"marker", doc.AccessMarker,
	)
	return doc, nil
}

// Get returns a document after the read capability check.
func (s *DocumentService) Get(ctx context.Context, viewer access.Viewer, docID string) (*models.Document, error) {
	doc, _, err := s.require(ctx, viewer, docID, access.ActionRead)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns the documents visible to the viewer. Super-moderators see
// everything; everyone else gets the marker inclusion filter evaluated
// by the database.
func (s *DocumentService) List(ctx context.Context, viewer access.Viewer) ([]*models.Document, error) {
	if viewer.SuperModerator {
		return s.docRepo.ListAll(ctx)
	}
	return s.docRepo.ListByMarkers(ctx, markerStrings(access.InclusionFilter(viewer)))
}

// ExcludedDocumentIDs returns the forbidden-id set for listing contexts
// that cannot attach a positive marker filter (mixed search, external
// query composition). Empty for super-moderators, checked here before
// the builder so the builder stays a pure function of the viewer.
func (s *DocumentService) ExcludedDocumentIDs(ctx context.Context, viewer access.Viewer) ([]string, error) {
	if viewer.SuperModerator {
		return nil, nil
	}
	return s.docRepo.ExcludedIDs(ctx, markerStrings(access.InclusionFilter(viewer)))
}

// UpdateDocumentRequest carries a content edit.
type UpdateDocumentRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (r *UpdateDocumentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
	)
}

// UpdateContent edits title/content after the edit capability check.
func (s *DocumentService) UpdateContent(ctx context.Context, viewer access.Viewer, docID string, req *UpdateDocumentRequest) (*models.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	doc, _, err := s.require(ctx, viewer, docID, access.ActionEdit)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}
	if err := s.docRepo.UpdateContent(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a document after the manage capability check.
func (s *DocumentService) Delete(ctx context.Context, viewer access.Viewer, docID string) error {
	if _, _, err := s.require(ctx, viewer, docID, access.ActionManage); err != nil {
		return err
	}
	return s.docRepo.Delete(ctx, docID)
}

// HistoryEntry is a single revision record.
type HistoryEntry struct {
	AuthorID string    `json:"author_id"`
	EditedAt time.Time `json:"edited_at"`
}

// History is gated on view_history. Revision storage itself lives
// outside this service; the current state is reported as the latest
// entry.
func (s *DocumentService) History(ctx context.Context, viewer access.Viewer, docID string) ([]HistoryEntry, error) {
	doc, _, err := s.require(ctx, viewer, docID, access.ActionViewHistory)
	if err != nil {
		return nil, err
	}
	return []HistoryEntry{{AuthorID: doc.AuthorID, EditedAt: doc.UpdatedAt}}, nil
}

// GetSettings returns the document's resolved effective settings, gated
// on manage.
func (s *DocumentService) GetSettings(ctx context.Context, viewer access.Viewer, docID string) (access.Settings, error) {
	doc, group, err := s.require(ctx, viewer, docID, access.ActionManage)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(engineDoc(doc), engineGroup(group)), nil
}

// SaveSettings validates submitted level strings, persists them, and
// re-synchronizes the marker, all inside one transaction, so a listing
// can never observe settings the marker does not yet reflect. The
// changed flag reports non-fatal corrections for the caller to surface.
func (s *DocumentService) SaveSettings(ctx context.Context, viewer access.Viewer, docID string, submitted map[string]string) (access.Settings, bool, error) {
	doc, group, err := s.require(ctx, viewer, docID, access.ActionManage)
	if err != nil {
		return nil, false, err
	}

	converted := make(map[access.Action]string, len(submitted))
	for k, v := range submitted {
		a, ok := access.ParseAction(k)
		if !ok {
			return nil, false, &domain.ValidationError{Message: fmt.Sprintf("unknown action %q", k)}
		}
		converted[a] = v
	}

	validated, changed := s.resolver.Verify(converted, engineDoc(doc), engineGroup(group), viewer)

	ed := engineDoc(doc)
	ed.Stored = validated.Strings()

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.SetSettings(txCtx, docID, stringKeys(ed.Stored)); err != nil {
			return err
		}
		_, err := s.sync.Sync(txCtx, ed, engineGroup(group))
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		s.logger.Info("submitted settings partially corrected",
			"doc_id", docID,
			"user_id", viewer.ID,
		)
	}
	return validated, changed, nil
}

// Levels returns the selectable options per action for the document's
// settings form.
func (s *DocumentService) Levels(ctx context.Context, viewer access.Viewer, docID string) (map[access.Action][]access.Option, error) {
	_, group, err := s.require(ctx, viewer, docID, access.ActionManage)
	if err != nil {
		return nil, err
	}

	options := make(map[access.Action][]access.Option, len(access.Actions))
	for _, a := range access.Actions {
		options[a] = s.registry.LevelsFor(a, engineGroup(group), viewer)
	}
	return options, nil
}

// LinkGroup associates the document with a group. The requester must
// manage the document and belong to the group. Defaults shift with the
// association, so the marker is re-synchronized in the same transaction.
func (s *DocumentService) LinkGroup(ctx context.Context, viewer access.Viewer, docID, groupID string) (*models.Document, error) {
	doc, _, err := s.require(ctx, viewer, docID, access.ActionManage)
	if err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ValidationError{Message: "group does not exist"}
		}
		return nil, err
	}
	if !viewer.SuperModerator && !viewer.Groups.IsMember(group.ID) {
		return nil, &domain.ForbiddenError{Message: "not a member of this group"}
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.SetGroup(txCtx, docID, &group.ID); err != nil {
			return err
		}
		ed := engineDoc(doc)
		ed.GroupID = group.ID
		_, err := s.sync.Sync(txCtx, ed, engineGroup(group))
		return err
	})
	if err != nil {
		return nil, err
	}

	doc.GroupID = &group.ID
	s.logger.Info("document linked to group", "doc_id", docID, "group_id", groupID)
	return doc, nil
}

// UnlinkGroup removes the group association. Every group-scoped level is
// reset to creator before the marker is recomputed, so a previously
// restricted document can only narrow, never silently become
// world-readable.
func (s *DocumentService) UnlinkGroup(ctx context.Context, viewer access.Viewer, docID string) (*models.Document, error) {
	doc, _, err := s.require(ctx, viewer, docID, access.ActionManage)
	if err != nil {
		return nil, err
	}
	if doc.GroupID == nil {
		return nil, &domain.ValidationError{Message: "document has no associated group"}
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.SetGroup(txCtx, docID, nil); err != nil {
			return err
		}
		_, _, err := s.sync.Unlink(txCtx, engineDoc(doc))
		return err
	})
	if err != nil {
		return nil, err
	}

	doc.GroupID = nil
	s.logger.Info("document unlinked from group", "doc_id", docID)
	return doc, nil
}
