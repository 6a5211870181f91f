// Package app wires configuration into a ready engine: catalog source,
// checkpoint backend, retrieval index, generator and narrator.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/voice-pos/internal/adapter/llm"
	"github.com/rl1809/voice-pos/internal/adapter/retrieval"
	"github.com/rl1809/voice-pos/internal/adapter/speech"
	"github.com/rl1809/voice-pos/internal/adapter/storage"
	"github.com/rl1809/voice-pos/internal/common/config"
	apperrors "github.com/rl1809/voice-pos/internal/common/errors"
	"github.com/rl1809/voice-pos/internal/common/logger"
	"github.com/rl1809/voice-pos/internal/core/domain"
	"github.com/rl1809/voice-pos/internal/core/service"
	"github.com/rl1809/voice-pos/internal/port"
)

type App struct {
	Config      *config.Config
	Logger      logger.Logger
	Catalog     *domain.Catalog
	Engine      *service.Engine
	Narrator    *service.Narrator
	Transcriber port.Transcriber

	// Restored is true when a previous cart was loaded at startup.
	Restored bool

	db      *sql.DB
	redis   *redis.Client
	closers []func() error
}

type options struct {
	sink        port.EventSink
	confirm     io.Writer
	idempotency bool
	embedder    retrieval.Embedder
	generator   port.Generator
}

type Option func(*options)

// WithEventSink sets where engine events go.
func WithEventSink(sink port.EventSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithConfirmations renders every engine event synchronously to w with the
// configured narrator.
func WithConfirmations(w io.Writer) Option {
	return func(o *options) { o.confirm = w }
}

// WithIdempotency enables request-id deduplication; it needs the redis backend.
func WithIdempotency() Option {
	return func(o *options) { o.idempotency = true }
}

// WithEmbedder overrides the configured retrieval provider.
func WithEmbedder(e retrieval.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithGenerator overrides the configured generator provider.
func WithGenerator(g port.Generator) Option {
	return func(o *options) { o.generator = g }
}

// New builds the application. Catalog or index failures are fatal; a
// missing or unreadable checkpoint is not.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg, Logger: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	catalogRepo, err := a.catalogRepository(ctx)
	if err != nil {
		return nil, err
	}
	items, err := catalogRepo.LoadCatalog(ctx)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}
	a.Catalog, err = domain.NewCatalog(items)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}
	log.Info("catalog loaded", map[string]interface{}{"items": a.Catalog.Len(), "source": cfg.Catalog.Source})

	embedder := o.embedder
	if embedder == nil {
		if embedder, err = retrieval.NewEmbedder(ctx, cfg.Retrieval); err != nil {
			return nil, err
		}
	}
	index, err := retrieval.BuildIndex(ctx, embedder, a.Catalog.Items(), log)
	if err != nil {
		return nil, err
	}

	checkpoints, err := a.checkpointRepository(ctx)
	if err != nil {
		return nil, err
	}

	generator := o.generator
	if generator == nil {
		if generator, err = llm.NewGenerator(ctx, cfg.Generator, log); err != nil {
			return nil, err
		}
	}
	a.Narrator = service.NewNarrator(generator, config.GetDuration(cfg.Generator.Timeout), log)

	resolver := service.NewResolver(index, service.ResolverOptions{
		TopK:     cfg.Retrieval.TopK,
		MinScore: cfg.Retrieval.MinScore,
		Timeout:  config.GetDuration(cfg.Retrieval.Timeout),
	}, log)

	engineOpts := []service.EngineOption{service.WithSessionID(cfg.Session.ID)}
	switch {
	case o.sink != nil:
		engineOpts = append(engineOpts, service.WithEventSink(o.sink))
	case o.confirm != nil:
		engineOpts = append(engineOpts, service.WithEventSink(service.NewWriterSink(a.Narrator, o.confirm)))
	}
	if o.idempotency {
		if a.redis == nil {
			return nil, errors.New("request idempotency needs checkpoint.backend=redis")
		}
		engineOpts = append(engineOpts, service.WithIdempotency(
			storage.NewRedisAdapter(a.redis, cfg.Redis.KeyPrefix, config.GetDuration(cfg.Redis.IdempotencyTTL)),
		))
	}
	a.Engine = service.NewEngine(a.Catalog, resolver, checkpoints, log, engineOpts...)
	a.Restored = a.Engine.Restore(ctx)

	a.Transcriber = speech.NewWhisperCLI(cfg.Transcriber.WhisperCLI, cfg.Transcriber.ModelPath, log)

	ok = true
	return a, nil
}

func (a *App) catalogRepository(ctx context.Context) (port.CatalogRepository, error) {
	switch a.Config.Catalog.Source {
	case "sql":
		db, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		return storage.NewSQLAdapter(db), nil
	default:
		return storage.NewFileCatalog(a.Config.Catalog.Path), nil
	}
}

func (a *App) checkpointRepository(ctx context.Context) (port.CheckpointRepository, error) {
	switch a.Config.Checkpoint.Backend {
	case "redis":
		cfg := a.Config.Redis
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		a.closers = append(a.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		a.redis = rdb
		a.Logger.Info("connected to redis", map[string]interface{}{"address": cfg.Address})
		return storage.NewRedisAdapter(rdb, cfg.KeyPrefix, config.GetDuration(cfg.IdempotencyTTL)), nil
	case "sql":
		db, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		return storage.NewSQLAdapter(db), nil
	default:
		return storage.NewFileCheckpointStore(a.Config.Checkpoint.Path), nil
	}
}

// OpenSQL opens the configured database and applies the schema.
func OpenSQL(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*sql.DB, error) {
	db, err := storage.OpenDatabase(ctx, cfg.Driver, cfg.DSN, cfg.MaxConnections, cfg.MaxIdle)
	if err != nil {
		return nil, err
	}
	if err := storage.NewSQLAdapter(db).Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("connected to database", map[string]interface{}{"driver": cfg.Driver})
	return db, nil
}

// database opens the SQL database once per App.
func (a *App) database(ctx context.Context) (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := OpenSQL(ctx, a.Config.Database, a.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	a.db = db
	return db, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
