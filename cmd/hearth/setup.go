package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/hearth"
	"github.com/aretw0/hearth/internal/catalog"
	"github.com/aretw0/hearth/internal/config"
	"github.com/aretw0/hearth/pkg/adapters/file"
	"github.com/aretw0/hearth/pkg/adapters/memory"
	"github.com/aretw0/hearth/pkg/adapters/redis"
	"github.com/aretw0/hearth/pkg/adapters/rest"
	"github.com/aretw0/hearth/pkg/adapters/sqlite"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/observability"
	"github.com/aretw0/hearth/pkg/persistence/middleware"
	"github.com/aretw0/hearth/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

// app bundles what a command needs from the configuration.
type app struct {
	assistant *hearth.Assistant
	archive   ports.TranscriptStore
	registry  *prometheus.Registry
	closers   []io.Closer
}

// Close releases backend and store connections.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// setup builds the assistant described by c.
// extra options are appended last so commands can add a navigator.
func setup(ctx context.Context, c *config.Config, logger *slog.Logger, extra ...hearth.Option) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}

	opts := []hearth.Option{
		hearth.WithLogger(logger),
		hearth.WithPresentationDelay(c.PresentationDelay),
		hearth.WithReplyDelay(c.ReplyDelay),
		hearth.WithResultsRoute(c.ResultsRoute),
		hearth.WithSearchTimeout(c.SearchTimeout),
		hearth.WithSubmitTimeout(c.SubmitTimeout),
		hearth.WithForwardAmenities(c.ForwardAmenities),
		hearth.WithIdleTTL(c.IdleTTL),
		hearth.WithLifecycleHooks(observability.LogHooks(logger)),
	}

	if c.CatalogPath != "" {
		cat, err := hearth.LoadCatalog(c.CatalogPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, hearth.WithCatalog(cat))
	}

	backend, err := a.openBackend(ctx, c, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	opts = append(opts, hearth.WithBackend(backend))

	archive, locker, err := a.openStore(c)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if archive != nil {
		opts = append(opts, hearth.WithArchive(archive))
	}
	if locker != nil {
		opts = append(opts, hearth.WithLocker(locker))
	}

	metrics, err := observability.NewMetrics(a.registry)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	opts = append(opts, hearth.WithLifecycleHooks(metrics.Hooks()))
	opts = append(opts, extra...)

	a.assistant = hearth.New(opts...)
	if err := metrics.TrackSessions(a.registry, a.assistant.Sessions().Len); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to register session gauge: %w", err)
	}
	return a, nil
}

func listings(c *config.Config) ([]domain.PropertySummary, error) {
	if c.ListingsPath == "" {
		return catalog.SampleListings(), nil
	}
	return catalog.LoadListings(c.ListingsPath)
}

func (a *app) openBackend(ctx context.Context, c *config.Config, logger *slog.Logger) (hearth.Backend, error) {
	switch c.Backend {
	case config.BackendSQLite:
		db, err := openSQLite(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		if c.ListingsPath != "" {
			props, err := catalog.LoadListings(c.ListingsPath)
			if err != nil {
				return nil, err
			}
			if err := db.Seed(ctx, props...); err != nil {
				return nil, fmt.Errorf("failed to seed listings: %w", err)
			}
		}
		logger.Debug("using sqlite backend", "path", c.SQLitePath)
		return db, nil

	case config.BackendREST:
		opts := []rest.Option{}
		if c.BackendAPIKey != "" {
			opts = append(opts, rest.WithAPIKey(c.BackendAPIKey))
		}
		client, err := rest.New(c.BackendURL, opts...)
		if err != nil {
			return nil, err
		}
		logger.Debug("using rest backend", "url", c.BackendURL)
		return client, nil

	default:
		props, err := listings(c)
		if err != nil {
			return nil, err
		}
		logger.Debug("using memory backend", "listings", len(props))
		return struct {
			*memory.Listings
			*memory.Desk
		}{memory.NewListings(props...), memory.NewDesk()}, nil
	}
}

func openSQLite(path string) (*sqlite.Backend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return sqlite.Open(path)
}

// openStore builds the transcript archive chain: PII masking first, then
// encryption, then the backing store.
func (a *app) openStore(c *config.Config) (ports.TranscriptStore, ports.Locker, error) {
	var (
		store  ports.TranscriptStore
		locker ports.Locker
	)
	switch c.Store {
	case config.StoreNone:
		return nil, nil, nil
	case config.StoreRedis:
		opt, err := goredis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := goredis.NewClient(opt)
		a.closers = append(a.closers, client)
		store = redis.NewFromClient(client, redis.WithTTL(c.TranscriptTTL))
		if c.DistributedLock {
			locker = redis.NewLocker(client, "hearth:lock:")
		}
	case config.StoreFile:
		store = file.NewStore(c.TranscriptDir)
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if c.MaskPII {
		mws = append(mws, middleware.NewPIIMiddleware())
	}
	if c.EncryptionKey != "" {
		key, err := c.Key()
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	a.archive = middleware.Chain(store, mws...)
	return a.archive, locker, nil
}
