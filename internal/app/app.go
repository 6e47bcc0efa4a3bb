package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/apiclient"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/audit"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/batch"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/cards"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/config"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/httpserver"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/observability"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/reportcards"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	closer func()
	store  *session.Store
	server *httpserver.Server
}

func New(cfg config.Config) (*App, error) {
	logger := observability.NewLogger(cfg.LogLevel)

	storage, closer, err := OpenSessionStorage(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	store, err := session.NewStore(storage, session.StoreConfig{MaxAge: cfg.Session.MaxAge})
	if err != nil {
		closer()
		return nil, fmt.Errorf("create session store: %w", err)
	}
	if err := store.Hydrate(); err != nil {
		closer()
		return nil, err
	}
	if n, err := store.Purge(); err != nil {
		logger.Warn("purge expired sessions failed", "error", err)
	} else if n > 0 {
		logger.Info("expired sessions purged", "count", n)
	}

	client, err := apiclient.NewClient(apiclient.ClientConfig{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		LoginPath: cfg.API.LoginPath,
		Logger:    logger,
	})
	if err != nil {
		closer()
		return nil, fmt.Errorf("create api client: %w", err)
	}

	runnerCfg := batch.RunnerConfig{Delay: cfg.Batch.Delay, Logger: logger}
	server := httpserver.New(cfg.HTTP, httpserver.Deps{
		Sessions:        store,
		Auth:            client,
		API:             client,
		ReportCards:     reportcards.NewService(reportcards.FromClient(client), runnerCfg),
		Cards:           cards.NewImporter(cards.FromClient(client), runnerCfg),
		Audit:           audit.NewLogger(cfg.AuditLogFile),
		Logger:          logger,
		CookieName:      cfg.Session.CookieName,
		SecureCookie:    cfg.Session.CookieSecure,
		FrontendDistDir: cfg.FrontendDistDir,
		BatchDelay:      cfg.Batch.Delay,
		APITimeout:      cfg.API.Timeout,
	})

	return &App{
		cfg:    cfg,
		log:    logger,
		closer: closer,
		store:  store,
		server: server,
	}, nil
}

// OpenSessionStorage builds the Storage selected by SESSION_BACKEND. The
// returned func releases any connection it opened.
func OpenSessionStorage(ctx context.Context, cfg config.Config) (session.Storage, func(), error) {
	noop := func() {}
	switch cfg.Session.Backend {
	case config.SessionBackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("ping database: %w", err)
		}
		storage, err := session.NewPostgresStorage(db)
		if err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("create postgres session storage: %w", err)
		}
		return storage, func() { _ = db.Close() }, nil
	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("ping redis: %w", err)
		}
		storage, err := session.NewRedisStorage(client, "")
		if err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("create redis session storage: %w", err)
		}
		return storage, func() { _ = client.Close() }, nil
	default:
		storage, err := session.NewFileStorage(cfg.Session.StateFile)
		if err != nil {
			return nil, noop, fmt.Errorf("create file session storage: %w", err)
		}
		return storage, noop, nil
	}
}

func (a *App) Run(ctx context.Context) error {
	defer a.closer()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting",
			"addr", a.cfg.HTTP.Addr,
			"api", a.cfg.API.BaseURL,
			"session_backend", a.cfg.Session.Backend,
			"sessions", len(a.store.List()),
		)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
