package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"docgate/internal/access"
	"docgate/internal/domain"
	"docgate/internal/domain/models"
	"docgate/internal/domain/repositories"
)

// fakeDocRepo is an in-memory DocumentRepository.
type fakeDocRepo struct {
	docs map[string]*models.Document
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: make(map[string]*models.Document)}
}

func (r *fakeDocRepo) get(id string) (*models.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

func (r *fakeDocRepo) Create(_ context.Context, doc *models.Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeDocRepo) GetByID(_ context.Context, id string) (*models.Document, error) {
	doc, err := r.get(id)
	if err != nil {
		return nil, err
	}
	copied := *doc
	copied.Settings = make(map[string]string, len(doc.Settings))
	for k, v := range doc.Settings {
		copied.Settings[k] = v
	}
	return &copied, nil
}

func (r *fakeDocRepo) UpdateContent(_ context.Context, doc *models.Document) error {
	stored, err := r.get(doc.ID)
	if err != nil {
		return err
	}
	stored.Title = doc.Title
	stored.Content = doc.Content
	return nil
}

func (r *fakeDocRepo) Delete(_ context.Context, id string) error {
	if _, err := r.get(id); err != nil {
		return err
	}
	delete(r.docs, id)
	return nil
}

func (r *fakeDocRepo) SetGroup(_ context.Context, docID string, groupID *string) error {
	doc, err := r.get(docID)
	if err != nil {
		return err
	}
	doc.GroupID = groupID
	return nil
}

func (r *fakeDocRepo) SetSettings(_ context.Context, docID string, settings map[string]string) error {
	doc, err := r.get(docID)
	if err != nil {
		return err
	}
	doc.Settings = settings
	return nil
}

func (r *fakeDocRepo) SetMarker(_ context.Context, docID string, marker string) error {
	doc, err := r.get(docID)
	if err != nil {
		return err
	}
	doc.AccessMarker = marker
	return nil
}

func (r *fakeDocRepo) ListByMarkers(_ context.Context, markers []string) ([]*models.Document, error) {
	set := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		set[m] = struct{}{}
	}
	var out []*models.Document
	for _, doc := range r.docs {
		if _, ok := set[doc.AccessMarker]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (r *fakeDocRepo) ListAll(_ context.Context) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range r.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (r *fakeDocRepo) ExcludedIDs(_ context.Context, markers []string) ([]string, error) {
	set := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		set[m] = struct{}{}
	}
	var out []string
	for _, doc := range r.docs {
		if _, ok := set[doc.AccessMarker]; !ok {
			out = append(out, doc.ID)
		}
	}
	return out, nil
}

// fakeGroupRepo is an in-memory GroupRepository.
type fakeGroupRepo struct {
	groups map[string]*models.Group
}

func newFakeGroupRepo(groups ...*models.Group) *fakeGroupRepo {
	r := &fakeGroupRepo{groups: make(map[string]*models.Group)}
	for _, g := range groups {
		r.groups[g.ID] = g
	}
	return r
}

func (r *fakeGroupRepo) Create(_ context.Context, group *models.Group) error {
	r.groups[group.ID] = group
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, id string) (*models.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	return g, nil
}

// fakeTxManager runs the function directly and counts invocations.
type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.calls++
	return fn(ctx)
}

type fixture struct {
	svc    *DocumentService
	docs   *fakeDocRepo
	groups *fakeGroupRepo
	tx     *fakeTxManager
}

func newFixture(t *testing.T, groups ...*models.Group) *fixture {
	t.Helper()
	docs := newFakeDocRepo()
	groupRepo := newFakeGroupRepo(groups...)
	tx := &fakeTxManager{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewDocumentService(docs, groupRepo, tx, access.NewRegistry(false), logger)
	return &fixture{svc: svc, docs: docs, groups: groupRepo, tx: tx}
}

func viewer(id string, roles map[string]access.GroupRole) access.Viewer {
	rel := access.GroupRelations{}
	for g, r := range roles {
		rel[g] = r
	}
	return access.Viewer{ID: id, Authenticated: true, Groups: rel}
}

func TestCreateGates(t *testing.T) {
	f := newFixture(t, &models.Group{ID: "g1", Name: "G1", CanCreate: "moderator"})
	ctx := context.Background()

	t.Run("anonymous cannot create", func(t *testing.T) {
		_, err := f.svc.Create(ctx, access.Anonymous(), &CreateDocumentRequest{Title: "t"})
		var forbidden *domain.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Fatalf("err = %v, want ForbiddenError", err)
		}
	})

	t.Run("authenticated user creates unassociated doc", func(t *testing.T) {
		doc, err := f.svc.Create(ctx, viewer("alice", nil), &CreateDocumentRequest{Title: "hello"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if doc.AuthorID != "alice" {
			t.Errorf("author = %s, want alice", doc.AuthorID)
		}
		if doc.AccessMarker != string(access.MarkerAnyone) {
			t.Errorf("marker = %s, want anyone default", doc.AccessMarker)
		}
	})

	t.Run("group minimum role enforced", func(t *testing.T) {
		gid := "g1"
		req := &CreateDocumentRequest{Title: "t", GroupID: &gid}

		_, err := f.svc.Create(ctx, viewer("bob", map[string]access.GroupRole{"g1": access.GroupRoleMember}), req)
		var forbidden *domain.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Fatalf("member err = %v, want ForbiddenError", err)
		}

		doc, err := f.svc.Create(ctx, viewer("eve", map[string]access.GroupRole{"g1": access.GroupRoleModerator}), req)
		if err != nil {
			t.Fatalf("moderator Create: %v", err)
		}
		// Group is private, so the read default scopes the marker to it.
		if doc.AccessMarker != string(access.GroupMemberMarker("g1")) {
			t.Errorf("marker = %s, want group member marker", doc.AccessMarker)
		}
	})

	t.Run("unknown group rejected as validation error", func(t *testing.T) {
		gid := "nope"
		_, err := f.svc.Create(ctx, viewer("alice", nil), &CreateDocumentRequest{Title: "t", GroupID: &gid})
		var invalid *domain.ValidationError
		if !errors.As(err, &invalid) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
	})
}

func TestGetHonorsReadLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.docs.docs["d1"] = &models.Document{
		ID: "d1", AuthorID: "alice",
		Settings:     map[string]string{"read": "creator"},
		AccessMarker: "user_alice",
	}

	if _, err := f.svc.Get(ctx, viewer("alice", nil), "d1"); err != nil {
		t.Fatalf("author Get: %v", err)
	}

	_, err := f.svc.Get(ctx, viewer("bob", nil), "d1")
	var forbidden *domain.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("stranger Get err = %v, want ForbiddenError", err)
	}

	super := access.Viewer{ID: "root", Authenticated: true, SuperModerator: true, Groups: access.GroupRelations{}}
	if _, err := f.svc.Get(ctx, super, "d1"); err != nil {
		t.Fatalf("super-moderator Get: %v", err)
	}

	_, err = f.svc.Get(ctx, viewer("alice", nil), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing doc err = %v, want ErrNotFound", err)
	}
}

func TestListUsesMarkerFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.docs.docs["d-open"] = &models.Document{ID: "d-open", AuthorID: "x", AccessMarker: "anyone"}
	f.docs.docs["d-priv"] = &models.Document{ID: "d-priv", AuthorID: "x", AccessMarker: "group_member_g9"}

	list, err := f.svc.List(ctx, viewer("alice", nil))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != "d-open" {
		t.Fatalf("list = %v, want [d-open]", docIDs(list))
	}

	super := access.Viewer{ID: "root", Authenticated: true, SuperModerator: true, Groups: access.GroupRelations{}}
	all, err := f.svc.List(ctx, super)
	if err != nil {
		t.Fatalf("super List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("super list = %v, want both docs", docIDs(all))
	}

	excluded, err := f.svc.ExcludedDocumentIDs(ctx, viewer("alice", nil))
	if err != nil {
		t.Fatalf("ExcludedDocumentIDs: %v", err)
	}
	if len(excluded) != 1 || excluded[0] != "d-priv" {
		t.Fatalf("excluded = %v, want [d-priv]", excluded)
	}

	superExcluded, err := f.svc.ExcludedDocumentIDs(ctx, super)
	if err != nil {
		t.Fatalf("super ExcludedDocumentIDs: %v", err)
	}
	if len(superExcluded) != 0 {
		t.Fatalf("super excluded = %v, want empty", superExcluded)
	}
}

func TestSaveSettingsSyncsMarkerInTx(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.docs.docs["d1"] = &models.Document{
		ID: "d1", AuthorID: "alice",
		Settings:     map[string]string{},
		AccessMarker: "anyone",
	}

	validated, changed, err := f.svc.SaveSettings(ctx, viewer("alice", nil), "d1", map[string]string{
		"read": "loggedin",
	})
	if err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if changed {
		t.Error("changed = true for a valid submission")
	}
	if validated[access.ActionRead].Kind != access.KindLoggedIn {
		t.Errorf("validated read = %v, want loggedin", validated[access.ActionRead].Kind)
	}

	stored := f.docs.docs["d1"]
	if stored.Settings["read"] != "loggedin" {
		t.Errorf("stored read = %q, want loggedin", stored.Settings["read"])
	}
	if stored.AccessMarker != string(access.MarkerLoggedIn) {
		t.Errorf("marker = %s, want loggedin", stored.AccessMarker)
	}
	if f.tx.calls != 1 {
		t.Errorf("tx calls = %d, want 1", f.tx.calls)
	}
}

func TestSaveSettingsCorrectsAndReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.docs.docs["d1"] = &models.Document{
		ID: "d1", AuthorID: "alice",
		Settings:     map[string]string{},
		AccessMarker: "anyone",
	}

	_, changed, err := f.svc.SaveSettings(ctx, viewer("alice", nil), "d1", map[string]string{
		"read": "total_nonsense",
	})
	if err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if !changed {
		t.Error("changed = false, want correction reported")
	}

	_, _, err = f.svc.SaveSettings(ctx, viewer("alice", nil), "d1", map[string]string{
		"not_an_action": "anyone",
	})
	var invalid *domain.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("unknown action err = %v, want ValidationError", err)
	}
}

func TestSaveSettingsRequiresManage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// manage defaults to creator, so a stranger cannot touch settings.
	f.docs.docs["d1"] = &models.Document{
		ID: "d1", AuthorID: "alice",
		Settings:     map[string]string{},
		AccessMarker: "anyone",
	}

	_, _, err := f.svc.SaveSettings(ctx, viewer("bob", nil), "d1", map[string]string{"read": "loggedin"})
	var forbidden *domain.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("err = %v, want ForbiddenError", err)
	}
}

func TestLinkGroupShiftsMarker(t *testing.T) {
	f := newFixture(t, &models.Group{ID: "g1", Name: "G1", Public: false, CanCreate: "member"})
	ctx := context.Background()

	f.docs.docs["d1"] = &models.Document{
		ID: "d1", AuthorID: "alice",
		Settings:     map[string]string{},
		AccessMarker: "anyone",
	}

	t.Run("non-member cannot link", func(t *testing.T) {
		_, err := f.svc.LinkGroup(ctx, viewer("alice", nil), "d1", "g1")
		var forbidden *domain.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Fatalf("err = %v, want ForbiddenError", err)
		}
	})

	t.Run("member links and marker narrows", func(t *testing.T) {
		member := viewer("alice", map[string]access.GroupRole{"g1": access.GroupRoleMember})
		doc, err := f.svc.LinkGroup(ctx, member, "d1", "g1")
		if err != nil {
			t.Fatalf("LinkGroup: %v", err)
		}
		if doc.GroupID == nil || *doc.GroupID != "g1" {
			t.Fatalf("GroupID = %v, want g1", doc.GroupID)
		}
		if got := f.docs.docs["d1"].AccessMarker; got != string(access.GroupMemberMarker("g1")) {
			t.Errorf("marker = %s, want group member marker", got)
		}
	})
}

func TestUnlinkGroupNarrowsToCreator(t *testing.T) {
	f := newFixture(t, &models.Group{ID: "g1", Name: "G1", Public: false, CanCreate: "member"})
	ctx := context.Background()

	gid := "g1"
	f.docs.docs["d1"] = &models.Document{
		ID: "d1", AuthorID: "alice", GroupID: &gid,
		Settings:     map[string]string{"edit": "group-members"},
		AccessMarker: string(access.GroupMemberMarker("g1")),
	}

	member := viewer("alice", map[string]access.GroupRole{"g1": access.GroupRoleMember})
	doc, err := f.svc.UnlinkGroup(ctx, member, "d1")
	if err != nil {
		t.Fatalf("UnlinkGroup: %v", err)
	}
	if doc.GroupID != nil {
		t.Errorf("GroupID = %v, want nil", doc.GroupID)
	}

	stored := f.docs.docs["d1"]
	if stored.Settings["edit"] != "creator" {
		t.Errorf("edit = %q after unlink, want creator", stored.Settings["edit"])
	}
	if stored.AccessMarker != string(access.UserMarker("alice")) {
		t.Errorf("marker = %s, want %s", stored.AccessMarker, access.UserMarker("alice"))
	}

	_, err = f.svc.UnlinkGroup(ctx, member, "d1")
	var invalid *domain.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("second unlink err = %v, want ValidationError", err)
	}
}

func TestLevelsReflectGroupStanding(t *testing.T) {
	f := newFixture(t, &models.Group{ID: "g1", Name: "G1", Public: false, CanCreate: "member"})
	ctx := context.Background()

	gid := "g1"
	f.docs.docs["d1"] = &models.Document{
		ID: "d1", AuthorID: "alice", GroupID: &gid,
		Settings:     map[string]string{"manage": "group-members"},
		AccessMarker: string(access.GroupMemberMarker("g1")),
	}

	member := viewer("bob", map[string]access.GroupRole{"g1": access.GroupRoleMember})
	options, err := f.svc.Levels(ctx, member, "d1")
	if err != nil {
		t.Fatalf("Levels: %v", err)
	}

	var hasGroupMembers, hasAdminsMods bool
	for _, opt := range options[access.ActionRead] {
		switch opt.Level.Kind {
		case access.KindGroupMembers:
			hasGroupMembers = true
		case access.KindAdminsMods:
			hasAdminsMods = true
		}
	}
	if !hasGroupMembers {
		t.Error("member missing group-members option")
	}
	if hasAdminsMods {
		t.Error("plain member offered admins-mods option")
	}
}

func TestDanglingGroupFailsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Group row gone, association left behind: group-scoped levels must
	// deny rather than fall open.
	gid := "vanished"
	f.docs.docs["d1"] = &models.Document{
		ID: "d1", AuthorID: "alice", GroupID: &gid,
		Settings:     map[string]string{"read": "group-members"},
		AccessMarker: string(access.GroupMemberMarker("vanished")),
	}

	wasMember := viewer("bob", map[string]access.GroupRole{"vanished": access.GroupRoleAdmin})
	_, err := f.svc.Get(ctx, wasMember, "d1")
	var forbidden *domain.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("err = %v, want ForbiddenError", err)
	}
}

func docIDs(docs []*models.Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}
