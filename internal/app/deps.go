package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/objectstore"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/storage/redis"
	"github.com/xenking/storefront/pkg/health"
)

// Cache is a featured snapshot cache that can report its health.
type Cache interface {
	catalog.FeaturedCache
	health.Pinger
}

// Deps bundles the catalog service with the collaborators backing it.
type Deps struct {
	Pool     *pgxpool.Pool
	Products *postgres.ProductRepository
	Cache    Cache
	Assets   *objectstore.Store
	Catalog  *catalog.Service

	closers []func()
}

// Open connects to PostgreSQL, the featured cache and the object store,
// runs migrations and builds the catalog service.
func Open(ctx context.Context, lg *zap.Logger, mp metric.MeterProvider, cfg *Config) (_ *Deps, rerr error) {
	d := &Deps{}
	defer func() {
		if rerr != nil {
			d.Close()
		}
	}()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	d.Pool = pool
	d.closers = append(d.closers, pool.Close)

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return nil, errors.Wrap(err, "run migrations")
	}
	d.Products = postgres.NewProductRepository(pool)

	switch cfg.Cache.Backend {
	case "memory":
		lg.Info("Using in-process featured cache")
		d.Cache = memory.New()
	default:
		client, err := redis.Dial(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		d.closers = append(d.closers, func() {
			if err := client.Close(); err != nil {
				lg.Warn("Close redis", zap.Error(err))
			}
		})
		d.Cache = redis.New(client, cfg.Cache.KeyPrefix)
	}

	assets, err := objectstore.New(objectstore.Config{
		Endpoint:      cfg.ObjectStore.Endpoint,
		Bucket:        cfg.ObjectStore.Bucket,
		AccessKey:     cfg.ObjectStore.AccessKey,
		SecretKey:     cfg.ObjectStore.SecretKey,
		UseSSL:        cfg.ObjectStore.UseSSL,
		PublicURL:     cfg.ObjectStore.PublicURL,
		MaxImageBytes: cfg.ObjectStore.MaxImageBytes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create object store")
	}
	if err := assets.EnsureBucket(ctx); err != nil {
		return nil, errors.Wrap(err, "ensure bucket")
	}
	d.Assets = assets

	svc, err := catalog.NewService(d.Products, d.Assets, d.Cache,
		catalog.WithLogger(lg.Named("catalog")),
		catalog.WithMeterProvider(mp),
		catalog.WithConfig(catalog.Config{
			FeaturedKey:  cfg.Cache.FeaturedKey,
			FeaturedTTL:  cfg.Cache.FeaturedTTL,
			StoreTimeout: cfg.Timeouts.Store,
			CacheTimeout: cfg.Timeouts.Cache,
			AssetTimeout: cfg.Timeouts.Asset,
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create catalog")
	}
	d.Catalog = svc
	return d, nil
}

// Close releases connections in reverse order of acquisition.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
