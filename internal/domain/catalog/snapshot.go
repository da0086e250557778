package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	// DefaultFeaturedKey is the cache key holding the featured snapshot.
	DefaultFeaturedKey = "featured_products"
	// DefaultFeaturedTTL bounds how long a snapshot may be served.
	DefaultFeaturedTTL = 10 * time.Minute
)

// ErrCacheMiss is returned by FeaturedCache.Get when the key is absent or
// expired.
var ErrCacheMiss = errors.New("cache miss")

// FeaturedCache is an advisory key/value store with per-entry expiry.
type FeaturedCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// encodeSnapshot serializes the featured set as a JSON array.
func encodeSnapshot(products []product.Product) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	product.EncodeList(e, products)
	return append([]byte(nil), e.Bytes()...)
}

// decodeSnapshot parses a payload written by encodeSnapshot.
func decodeSnapshot(data []byte) ([]product.Product, error) {
	products, err := product.DecodeList(jx.DecodeBytes(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode featured snapshot")
	}
	return products, nil
}
