package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"docgate/internal/access"
	"docgate/internal/auth"
	"docgate/internal/config"
	"docgate/internal/handler"
	"docgate/internal/middleware"
	"docgate/internal/repository/postgres"
	"docgate/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	// In dev, mirror logs to a timestamped file so crashes stay inspectable.
	var logOut io.Writer = os.Stdout
	if cfg.Environment == "dev" {
		if f, err := config.SetupLogFile("logs", 10); err == nil {
			defer f.Close()
			logOut = io.MultiWriter(os.Stdout, f)
		} else {
			log.Printf("log file setup failed, stdout only: %v", err)
		}
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	groupRepo := postgres.NewGroupRepository(repoConfig)
	memberRepo := postgres.NewMembershipRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	registry := access.NewRegistry(cfg.AllowCustomLevels)
	relations := service.NewGroupRelationService(memberRepo)
	docService := service.NewDocumentService(docRepo, groupRepo, txManager, registry, logger)

	docHandler := handler.NewDocumentHandler(docService, logger)

	logger.Info("services initialized")

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents", docHandler.ListDocuments)
	mux.HandleFunc("GET /api/documents/excluded-ids", docHandler.ExcludedDocumentIDs) // Must come before {id} route
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)

	// Access settings routes
	mux.HandleFunc("GET /api/documents/{id}/settings", docHandler.GetSettings)
	mux.HandleFunc("PUT /api/documents/{id}/settings", docHandler.SaveSettings)
	mux.HandleFunc("GET /api/documents/{id}/levels", docHandler.GetLevels)
	mux.HandleFunc("GET /api/documents/{id}/history", docHandler.GetHistory)

	// Group association routes
	mux.HandleFunc("PUT /api/documents/{id}/group", docHandler.LinkGroup)
	mux.HandleFunc("DELETE /api/documents/{id}/group", docHandler.UnlinkGroup)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.AuthMiddleware(jwtVerifier, relations, logger)(h)
	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
