package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/config"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/logging"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/repository"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/sandbox"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/services"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow/scripted"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflows"
)

// app holds the wired services shared by every command.
type app struct {
	cfg         *config.Config
	logger      *logging.Logger
	pool        *pgxpool.Pool
	badger      *repository.BadgerDiscussionStore
	discussions *services.DiscussionService
	engine      *workflow.Engine
}

func loadConfig(path string) (*config.Config, *logging.Logger, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewLoggerWithOptions(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := a.openStore(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	var sink workflow.Sink
	if store != nil {
		a.discussions = services.NewDiscussionService(store, a.embedder(), cfg.Discussions.TopK)
		sink = a.discussions
	}

	base := sandbox.Config{
		URL:      cfg.Sandbox.URL,
		Timeout:  cfg.Sandbox.Timeout,
		Template: cfg.Sandbox.Template,
	}
	a.engine = workflow.New(ctx,
		workflow.WithNamespace(a.namespace()),
		workflow.WithSink(sink),
		workflow.WithCredential(cfg.Sandbox.APIKey),
		workflow.WithLogger(logger.With("component", "workflow")),
		workflow.WithSessionFactory(func(ctx context.Context, credential string) (sandbox.Session, error) {
			c := base
			c.APIKey = credential
			s, err := sandbox.Create(ctx, c)
			if err != nil {
				return nil, err
			}
			logger.Info("Sandbox session opened", "session_id", s.ID())
			return s, nil
		}),
	)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (repository.DiscussionStore, error) {
	switch a.cfg.Discussions.Driver {
	case config.DriverPostgres:
		pool, err := initDatabase(ctx, a.cfg, a.logger)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.logger.Info("Database connected")
		return repository.NewPostgresDiscussionStore(pool), nil
	case config.DriverBadger:
		store, err := repository.OpenBadger(a.cfg.Discussions.BadgerPath, a.logger.With("component", "badger"))
		if err != nil {
			return nil, err
		}
		a.badger = store
		a.logger.Info("Badger store opened", "path", a.cfg.Discussions.BadgerPath)
		return store, nil
	default:
		a.logger.Info("Discussion store disabled")
		return nil, nil
	}
}

func (a *app) embedder() services.MLClient {
	if a.cfg.MLSidecar.URL == "" {
		a.logger.Info("No ML sidecar configured, using hashing embedder")
		return services.HashingEmbedder{}
	}
	return services.NewHTTPMLClient(a.cfg.MLSidecar.URL)
}

func (a *app) namespace() workflow.Namespace {
	if a.cfg.Workflows.Namespace == config.BuiltinNamespace {
		return workflows.Namespace()
	}
	return scripted.NewDir(a.cfg.Workflows.Namespace, a.logger.With("component", "scripted"))
}

// close releases the sandbox session and the stores. Errors are logged.
func (a *app) close(ctx context.Context) {
	if a.engine != nil {
		if err := a.engine.Close(ctx); err != nil {
			a.logger.Warn("Failed to close sandbox session", "error", err)
		}
	}
	if a.badger != nil {
		if err := a.badger.Close(); err != nil {
			a.logger.Warn("Failed to close badger store", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection")

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
