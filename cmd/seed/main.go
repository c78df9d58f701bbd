package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"docgate/internal/access"
	"docgate/internal/config"
	"docgate/internal/domain/models"
	"docgate/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Seed loads a YAML fixture of groups, memberships, and documents into
// the database for local development. Markers are synchronized the same
// way a settings save would, so seeded data is immediately listable.

type fixture struct {
	Groups    []fixtureGroup    `yaml:"groups"`
	Documents []fixtureDocument `yaml:"documents"`
}

type fixtureGroup struct {
	Name      string          `yaml:"name"`
	Slug      string          `yaml:"slug"`
	Public    bool            `yaml:"public"`
	CanCreate string          `yaml:"can_create"`
	Members   []fixtureMember `yaml:"members"`
}

type fixtureMember struct {
	UserID string `yaml:"user_id"`
	Role   string `yaml:"role"`
}

type fixtureDocument struct {
	Title    string            `yaml:"title"`
	Content  string            `yaml:"content"`
	AuthorID string            `yaml:"author_id"`
	Group    string            `yaml:"group"` // slug of a group defined above
	Settings map[string]string `yaml:"settings"`
}

func main() {
	_ = godotenv.Load()

	var file string
	flag.StringVar(&file, "file", "seed.yaml", "fixture file to load")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.Load()

	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatalf("read fixture: %v", err)
	}

	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		log.Fatalf("parse fixture: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	groupRepo := postgres.NewGroupRepository(repoConfig)
	memberRepo := postgres.NewMembershipRepository(repoConfig)

	registry := access.NewRegistry(cfg.AllowCustomLevels)
	resolver := access.NewResolver(registry)

	groupsBySlug := make(map[string]*models.Group)
	for _, fg := range fx.Groups {
		group := &models.Group{
			ID:        uuid.NewString(),
			Name:      fg.Name,
			Slug:      fg.Slug,
			Public:    fg.Public,
			CanCreate: fg.CanCreate,
		}
		if group.CanCreate == "" {
			group.CanCreate = "member"
		}
		if err := groupRepo.Create(ctx, group); err != nil {
			log.Fatalf("create group %s: %v", fg.Slug, err)
		}
		groupsBySlug[fg.Slug] = group

		for _, m := range fg.Members {
			membership := &models.Membership{
				GroupID: group.ID,
				UserID:  m.UserID,
				Role:    m.Role,
			}
			if err := memberRepo.Upsert(ctx, membership); err != nil {
				log.Fatalf("add member %s to %s: %v", m.UserID, fg.Slug, err)
			}
		}
		logger.Info("group seeded", "slug", fg.Slug, "members", len(fg.Members))
	}

	for _, fd := range fx.Documents {
		doc := &models.Document{
			ID:       uuid.NewString(),
			AuthorID: fd.AuthorID,
			Title:    fd.Title,
			Content:  fd.Content,
			Settings: fd.Settings,
		}

		var group *models.Group
		if fd.Group != "" {
			g, ok := groupsBySlug[fd.Group]
			if !ok {
				log.Fatalf("document %q references unknown group %q", fd.Title, fd.Group)
			}
			group = g
			doc.GroupID = &g.ID
		}

		doc.AccessMarker = string(markerFor(resolver, doc, group))

		if err := docRepo.Create(ctx, doc); err != nil {
			log.Fatalf("create document %q: %v", fd.Title, err)
		}
		if len(fd.Settings) > 0 {
			if err := docRepo.SetSettings(ctx, doc.ID, fd.Settings); err != nil {
				log.Fatalf("store settings for %q: %v", fd.Title, err)
			}
		}
		logger.Info("document seeded", "title", fd.Title, "marker", doc.AccessMarker)
	}

	fmt.Printf("seeded %d groups, %d documents\n", len(fx.Groups), len(fx.Documents))
}

// markerFor mirrors the settings-save path: resolve the read level, then
// derive the marker.
func markerFor(resolver *access.Resolver, doc *models.Document, group *models.Group) access.Marker {
	stored := make(map[access.Action]string, len(doc.Settings))
	for k, v := range doc.Settings {
		if a, ok := access.ParseAction(k); ok {
			stored[a] = v
		}
	}
	groupID := ""
	var eg *access.Group
	if group != nil {
		groupID = group.ID
		eg = &access.Group{
			ID:        group.ID,
			Public:    group.Public,
			CanCreate: access.ParseGroupRole(group.CanCreate),
		}
	}
	ed := access.Doc{ID: doc.ID, AuthorID: doc.AuthorID, GroupID: groupID, Stored: stored}
	level := resolver.Resolve(ed, eg)[access.ActionRead]
	return access.MarkerFor(level, doc.AuthorID)
}
