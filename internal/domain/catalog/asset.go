package catalog

import (
	"context"
	"net/url"
	"strings"
)

// AssetNamespace is the folder product images are uploaded into.
const AssetNamespace = "products"

// Asset is the result of a successful upload.
type Asset struct {
	// URL is the public location of the stored object. May be empty if the
	// store accepted the upload but did not report a location.
	URL string
}

// AssetStore stores binary product images.
type AssetStore interface {
	// Upload stores the image referenced by source (a data URI or a remote
	// URL) under the given namespace.
	Upload(ctx context.Context, source, namespace string) (*Asset, error)
	// Delete removes the asset with the given identifier.
	Delete(ctx context.Context, assetID string) error
}

// AssetID derives the asset identifier from an image URL produced by
// Upload: the namespace plus the last path segment with any extension
// stripped. It returns an empty string when nothing can be derived.
func AssetID(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	name := p[strings.LastIndexByte(p, '/')+1:]
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return ""
	}
	return AssetNamespace + "/" + name
}
