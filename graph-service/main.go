package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/animus-labs/rungraph/internal/platform/auditlog"
	"github.com/animus-labs/rungraph/internal/platform/auth"
	"github.com/animus-labs/rungraph/internal/platform/env"
	"github.com/animus-labs/rungraph/internal/platform/httpserver"
	"github.com/animus-labs/rungraph/internal/platform/metrics"
	platformstore "github.com/animus-labs/rungraph/internal/platform/objectstore"
	"github.com/animus-labs/rungraph/internal/platform/postgres"
	pgrepo "github.com/animus-labs/rungraph/internal/repo/postgres"
	"github.com/animus-labs/rungraph/internal/service/graphs"
	"github.com/animus-labs/rungraph/internal/storage/objectstore"
)

const serviceName = "graph-service"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("RUNGRAPH_HTTP_ADDR", ":8090")
	shutdownTimeout, err := env.Duration("RUNGRAPH_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	cacheSize, err := env.Int("RUNGRAPH_CACHE_SIZE", 256)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	migrate, err := env.Bool("RUNGRAPH_DATABASE_MIGRATE", false)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	if migrate {
		if err := pgrepo.EnsureSchema(ctx, db); err != nil {
			logger.Error("database schema", "error", err)
			os.Exit(1)
		}
	}

	storeCfg, err := platformstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object storage config", "error", err)
		os.Exit(2)
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}
	var authenticator auth.Authenticator
	switch authCfg.Mode {
	case auth.ModeOIDC:
		authenticator, err = auth.NewOIDCAuthenticator(ctx, authCfg)
		if err != nil {
			logger.Error("oidc unavailable", "error", err)
			os.Exit(1)
		}
	default:
		logger.Warn("authentication disabled", "roles", authCfg.DisabledRoles)
		authenticator = auth.NewDisabledAuthenticator(authCfg)
	}

	m := metrics.New("rungraph")
	readiness := []httpserver.ReadinessCheck{{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			return postgres.Ping(ctx, db, 750*time.Millisecond)
		},
	}}

	opts := graphs.Options{
		Logger:    logger,
		Graphs:    pgrepo.NewGraphStore(db),
		Metrics:   m,
		CacheSize: cacheSize,
		Audit: func(ctx context.Context, event auditlog.Event) error {
			_, err := auditlog.Insert(ctx, db, event)
			return err
		},
	}
	if storeCfg.Enabled {
		archive, check, err := openArchive(ctx, storeCfg)
		if err != nil {
			logger.Error("object storage unavailable", "error", err)
			os.Exit(1)
		}
		opts.Archive = archive
		readiness = append(readiness, check)
	}

	svc, err := graphs.New(opts)
	if err != nil {
		logger.Error("graph service", "error", err)
		os.Exit(2)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", httpserver.Healthz(serviceName))
	mux.HandleFunc("GET /readyz", httpserver.ReadyzWithChecks(serviceName, readiness...))
	mux.Handle("GET /metrics", m.Handler())
	newGraphAPI(logger, svc).register(mux)

	handler := m.Instrument(mux, auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		Authorize:     auth.RoleAuthorizer(),
		Audit:         auditlog.AuthDenyRecorder(db, serviceName),
		SkipPrefixes:  []string{"/healthz", "/readyz", "/metrics"},
	}.Wrap(mux))

	cfg := httpserver.Config{
		Service:         serviceName,
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
		MaxBodyBytes:    maxRunBytes + 1<<10,
	}
	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, serviceName, handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// openArchive connects to MinIO, creates the graph and run buckets and returns
// the archive with its readiness check.
func openArchive(ctx context.Context, cfg platformstore.Config) (*objectstore.Archive, httpserver.ReadinessCheck, error) {
	client, err := platformstore.NewMinIOClient(cfg)
	if err != nil {
		return nil, httpserver.ReadinessCheck{}, err
	}
	if err := platformstore.EnsureBuckets(ctx, client, cfg); err != nil {
		return nil, httpserver.ReadinessCheck{}, err
	}
	store, err := objectstore.NewMinioStore(client)
	if err != nil {
		return nil, httpserver.ReadinessCheck{}, err
	}
	archive, err := objectstore.NewArchive(store, cfg.BucketGraph, cfg.BucketRuns)
	if err != nil {
		return nil, httpserver.ReadinessCheck{}, err
	}
	check := httpserver.ReadinessCheck{
		Name: "minio",
		Check: httpserver.WithTimeout(750*time.Millisecond, func(ctx context.Context) error {
			return platformstore.CheckBuckets(ctx, client, cfg)
		}),
	}
	return archive, check, nil
}
