package catalog

import (
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	cacheErrors   metric.Int64Counter
	assetCleanups metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter("github.com/xenking/storefront/internal/domain/catalog")

	var (
		m   metrics
		err error
	)
	if m.cacheHits, err = meter.Int64Counter("catalog.featured.cache.hits",
		metric.WithDescription("Featured reads served from the cache"),
	); err != nil {
		return nil, errors.Wrap(err, "cache hits counter")
	}
	if m.cacheMisses, err = meter.Int64Counter("catalog.featured.cache.misses",
		metric.WithDescription("Featured reads that fell back to the repository"),
	); err != nil {
		return nil, errors.Wrap(err, "cache misses counter")
	}
	if m.cacheErrors, err = meter.Int64Counter("catalog.featured.cache.errors",
		metric.WithDescription("Featured cache operations that failed"),
	); err != nil {
		return nil, errors.Wrap(err, "cache errors counter")
	}
	if m.assetCleanups, err = meter.Int64Counter("catalog.asset.cleanup.failures",
		metric.WithDescription("Product image deletions that failed and were skipped"),
	); err != nil {
		return nil, errors.Wrap(err, "asset cleanup counter")
	}
	return &m, nil
}
