package catalog

import (
	"fmt"

	"github.com/xenking/storefront/internal/domain/product"
)

// ErrNotFound is returned when the referenced product does not exist.
var ErrNotFound = product.ErrNotFound

// UpstreamAssetError reports a failed asset store call.
type UpstreamAssetError struct {
	Op  string
	Err error
}

func (e *UpstreamAssetError) Error() string {
	return fmt.Sprintf("asset %s: %v", e.Op, e.Err)
}

func (e *UpstreamAssetError) Unwrap() error { return e.Err }

// StoreError reports a failed repository call on a critical path.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// CacheError reports a failed featured cache call. It is only ever logged.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
