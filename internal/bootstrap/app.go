package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"intake-backend/internal/docai"
	"intake-backend/internal/jobs"
	"intake-backend/internal/records"
	"intake-backend/internal/shared/config"
	"intake-backend/internal/shared/storage/db"
	localstore "intake-backend/internal/shared/storage/object/local"
	"intake-backend/internal/shared/telemetry"
	"intake-backend/internal/webhook"
)

// App holds the wired dependency graph shared by the API server and the
// watch-folder worker.
type App struct {
	Jobs       *jobs.Service
	Records    records.Repo
	Settings   webhook.Settings
	Dispatcher *webhook.Dispatcher
	DB         *sql.DB
}

// Build wires the application from configuration. The records backend falls
// back from postgres to the file store when the database is unreachable, so
// a local run never needs a database.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	var sqlDB *sql.DB
	if cfg.RecordsBackend == "postgres" && cfg.DatabaseURL != "" {
		conn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			telemetry.Warn("bootstrap.db_unavailable", map[string]any{"error": err.Error()})
		} else if err := db.RunMigrations(ctx, conn); err != nil {
			telemetry.Warn("bootstrap.migrations_failed", map[string]any{"error": err.Error()})
			_ = conn.Close()
		} else {
			sqlDB = conn
		}
	}

	var repo records.Repo
	var settings webhook.Settings
	if sqlDB != nil {
		repo = &records.PGRepo{DB: sqlDB}
		settings = &webhook.PGSettings{DB: sqlDB}
	} else {
		fileRepo, err := records.NewFileRepo(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("records store: %w", err)
		}
		fileSettings, err := webhook.NewFileSettings(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("webhook settings: %w", err)
		}
		repo = fileRepo
		settings = fileSettings
	}

	// Seed the built-in default URL; a user-saved value always wins.
	if cfg.WebhookDefaultURL != "" {
		current, err := settings.GetURL(ctx)
		if err == nil && current == "" {
			if err := settings.SetURL(ctx, cfg.WebhookDefaultURL); err != nil {
				telemetry.Warn("bootstrap.webhook_seed_failed", map[string]any{"error": err.Error()})
			}
		}
	}

	client, err := docai.NewHTTPClient(cfg.DocAIBaseURL, cfg.DocAIAccessToken, cfg.MaxPages, cfg.DocAITimeout)
	if err != nil {
		return nil, fmt.Errorf("document client: %w", err)
	}

	dispatcher := webhook.NewDispatcher(settings, nil)
	files := localstore.New(cfg.DataDir)
	svc := jobs.NewService(files, client, repo, dispatcher, jobs.Options{
		PollInterval:    cfg.PollInterval,
		PollMaxAttempts: cfg.PollMaxAttempts,
		MaxPages:        cfg.MaxPages,
	})

	return &App{
		Jobs:       svc,
		Records:    repo,
		Settings:   settings,
		Dispatcher: dispatcher,
		DB:         sqlDB,
	}, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
