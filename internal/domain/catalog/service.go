// Package catalog implements the product catalog read/write path: the
// featured-products cache-aside projection, eager snapshot refresh on every
// mutation, and the image asset lifecycle around product records.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/product"
)

// CreateRequest holds the input for creating a product. No business rules
// are applied to the fields.
type CreateRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	// Image is an optional upload source (data URI or remote URL).
	Image    string
	Category string
}

// Config tunes cache policy and per-collaborator call timeouts. Zero
// timeouts leave the caller's deadline in charge.
type Config struct {
	FeaturedKey  string
	FeaturedTTL  time.Duration
	StoreTimeout time.Duration
	CacheTimeout time.Duration
	AssetTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.FeaturedKey == "" {
		c.FeaturedKey = DefaultFeaturedKey
	}
	if c.FeaturedTTL <= 0 {
		c.FeaturedTTL = DefaultFeaturedTTL
	}
	return c
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for absorbed failures.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Service) { s.lg = lg }
}

// WithMeterProvider sets the provider for catalog metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.mp = mp }
}

// WithConfig overrides the default cache policy and timeouts.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// Service orchestrates the product repository, the image asset store and
// the featured cache.
//
// Failures that threaten the product records are returned to the caller.
// Failures of the featured cache and of image cleanup on delete are logged
// and absorbed.
//
// Concurrent ToggleFeatured calls on one product are last-write-wins: the
// flip is an unsynchronized read-modify-write. Concurrent refreshes may race
// on which snapshot the cache keeps; each is a complete recompute, so either
// outcome is valid.
type Service struct {
	repo   product.Repository
	assets AssetStore
	cache  FeaturedCache

	cfg     Config
	lg      *zap.Logger
	mp      metric.MeterProvider
	metrics *metrics
}

// NewService creates a Service over the given collaborators.
func NewService(
	repo product.Repository,
	assets AssetStore,
	cache FeaturedCache,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		repo:   repo,
		assets: assets,
		cache:  cache,
		lg:     zap.NewNop(),
		mp:     noop.NewMeterProvider(),
	}
	for _, o := range opts {
		o(s)
	}
	s.cfg = s.cfg.withDefaults()

	m, err := newMetrics(s.mp)
	if err != nil {
		return nil, errors.Wrap(err, "init metrics")
	}
	s.metrics = m
	return s, nil
}

// CreateProduct uploads the optional image, stores the product and
// refreshes the featured snapshot.
//
// An upload failure aborts creation with *UpstreamAssetError; a repository
// failure yields *StoreError.
func (s *Service) CreateProduct(ctx context.Context, req CreateRequest) (*product.Product, error) {
	var image string
	if req.Image != "" {
		actx, cancel := withTimeout(ctx, s.cfg.AssetTimeout)
		asset, err := s.assets.Upload(actx, req.Image, AssetNamespace)
		cancel()
		if err != nil {
			return nil, &UpstreamAssetError{Op: "upload", Err: err}
		}
		if asset != nil {
			image = asset.URL
		}
	}

	sctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	p, err := s.repo.Insert(sctx, product.NewProduct{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       image,
		Category:    req.Category,
	})
	cancel()
	if err != nil {
		return nil, &StoreError{Op: "insert", Err: err}
	}

	s.refreshAfterWrite(ctx)
	return p, nil
}

// DeleteProduct removes a product in two phases: first a best-effort
// deletion of its image, then deletion of the record. A failed image
// deletion never prevents the record from being removed; an orphaned object
// is left for reconciliation.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	if p.Image != "" {
		s.removeAsset(ctx, p)
	}

	sctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	err = s.repo.Delete(sctx, p.ID)
	cancel()
	// A concurrent delete already did the work.
	if err != nil && !errors.Is(err, product.ErrNotFound) {
		return &StoreError{Op: "delete", Err: err}
	}

	s.refreshAfterWrite(ctx)
	return nil
}

// removeAsset deletes the product image, logging any failure.
func (s *Service) removeAsset(ctx context.Context, p *product.Product) {
	lg := s.lg.With(zap.String("product_id", p.ID), zap.String("image", p.Image))

	assetID := AssetID(p.Image)
	if assetID == "" {
		lg.Warn("Cannot derive asset id from image url")
		return
	}

	actx, cancel := withTimeout(ctx, s.cfg.AssetTimeout)
	defer cancel()
	if err := s.assets.Delete(actx, assetID); err != nil {
		s.metrics.assetCleanups.Add(ctx, 1)
		lg.Warn("Delete product image",
			zap.String("asset_id", assetID),
			zap.Error(&UpstreamAssetError{Op: "delete", Err: err}),
		)
		return
	}
	lg.Debug("Deleted product image", zap.String("asset_id", assetID))
}

// ToggleFeatured flips the featured flag of a product and refreshes the
// featured snapshot.
func (s *Service) ToggleFeatured(ctx context.Context, id string) (*product.Product, error) {
	p, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	sctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	updated, err := s.repo.SetFeatured(sctx, p.ID, !p.IsFeatured)
	cancel()
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "update featured", Err: err}
	}

	s.refreshAfterWrite(ctx)
	return updated, nil
}

// Featured returns every featured product, preferring the cached snapshot.
// Any cache failure is treated as a miss; the repository result is returned
// even if it cannot be written back.
func (s *Service) Featured(ctx context.Context) ([]product.Product, error) {
	if products, ok := s.cachedFeatured(ctx); ok {
		return products, nil
	}

	products, err := s.listFeatured(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.storeSnapshot(ctx, products); err != nil {
		s.lg.Warn("Populate featured cache", zap.Error(err))
	}
	return products, nil
}

// RefreshFeatured recomputes the featured snapshot from the repository and
// overwrites the cached copy.
func (s *Service) RefreshFeatured(ctx context.Context) error {
	products, err := s.listFeatured(ctx)
	if err != nil {
		return err
	}
	return s.storeSnapshot(ctx, products)
}

// refreshAfterWrite runs the eager snapshot refresh that follows every
// mutation. It is detached from the caller's cancellation so a client
// disconnect after a committed write still refreshes the cache; the
// configured timeouts still apply. Failures are logged and left to TTL.
func (s *Service) refreshAfterWrite(ctx context.Context) {
	if err := s.RefreshFeatured(context.WithoutCancel(ctx)); err != nil {
		s.lg.Warn("Refresh featured cache", zap.Error(err))
	}
}

func (s *Service) cachedFeatured(ctx context.Context) ([]product.Product, bool) {
	cctx, cancel := withTimeout(ctx, s.cfg.CacheTimeout)
	data, err := s.cache.Get(cctx, s.cfg.FeaturedKey)
	cancel()
	switch {
	case errors.Is(err, ErrCacheMiss):
		s.metrics.cacheMisses.Add(ctx, 1)
		return nil, false
	case err != nil:
		s.metrics.cacheErrors.Add(ctx, 1)
		s.metrics.cacheMisses.Add(ctx, 1)
		s.lg.Warn("Read featured cache", zap.Error(&CacheError{Op: "get", Err: err}))
		return nil, false
	}

	products, err := decodeSnapshot(data)
	if err != nil {
		s.metrics.cacheErrors.Add(ctx, 1)
		s.metrics.cacheMisses.Add(ctx, 1)
		s.lg.Warn("Discard featured cache entry", zap.Error(&CacheError{Op: "decode", Err: err}))
		return nil, false
	}
	s.metrics.cacheHits.Add(ctx, 1)
	return products, true
}

func (s *Service) storeSnapshot(ctx context.Context, products []product.Product) error {
	cctx, cancel := withTimeout(ctx, s.cfg.CacheTimeout)
	defer cancel()
	if err := s.cache.Set(cctx, s.cfg.FeaturedKey, encodeSnapshot(products), s.cfg.FeaturedTTL); err != nil {
		s.metrics.cacheErrors.Add(ctx, 1)
		return &CacheError{Op: "set", Err: err}
	}
	return nil
}

func (s *Service) listFeatured(ctx context.Context) ([]product.Product, error) {
	sctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	products, err := s.repo.ListFeatured(sctx)
	if err != nil {
		return nil, &StoreError{Op: "list featured", Err: err}
	}
	return products, nil
}

// Newest returns up to limit of the most recently created products. The
// limit is clamped to [1, MaxNewestLimit]; non-positive values select
// DefaultNewestLimit.
func (s *Service) Newest(ctx context.Context, limit int) ([]product.Product, error) {
	sctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	products, err := s.repo.ListNewest(sctx, ClampLimit(float64(limit)))
	if err != nil {
		return nil, &StoreError{Op: "list newest", Err: err}
	}
	return products, nil
}

// Recommended returns up to RecommendedSize distinct random products in
// their reduced form. Smaller catalogs yield fewer results.
func (s *Service) Recommended(ctx context.Context) ([]product.Summary, error) {
	sctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	products, err := s.repo.Sample(sctx, RecommendedSize)
	if err != nil {
		return nil, &StoreError{Op: "sample", Err: err}
	}

	out := make([]product.Summary, len(products))
	for i, p := range products {
		out[i] = p.Summary()
	}
	return out, nil
}

// ByCategory returns the products of one category.
func (s *Service) ByCategory(ctx context.Context, category string) ([]product.Product, error) {
	sctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	products, err := s.repo.ListByCategory(sctx, category)
	if err != nil {
		return nil, &StoreError{Op: "list by category", Err: err}
	}
	return products, nil
}

// List returns every product.
func (s *Service) List(ctx context.Context) ([]product.Product, error) {
	sctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	products, err := s.repo.List(sctx)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return products, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*product.Product, error) {
	sctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	p, err := s.repo.GetByID(sctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "get", Err: err}
	}
	return p, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
