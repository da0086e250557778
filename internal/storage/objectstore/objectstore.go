// Package objectstore stores product images in a MinIO/S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// DefaultMaxImageBytes bounds the size of a single uploaded image.
const DefaultMaxImageBytes = 10 << 20

const fetchTimeout = 30 * time.Second

// Config holds object store connection settings.
type Config struct {
	// Endpoint is the MinIO server address, e.g. "localhost:9000".
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL is the base under which objects are served. Defaults to the
	// endpoint with the scheme implied by UseSSL.
	PublicURL string
	// MaxImageBytes caps decoded or downloaded image size.
	MaxImageBytes int64

	// Client is an optional pre-configured client. When set, Endpoint and
	// credentials are only used to build PublicURL.
	Client *minio.Client
}

func (c *Config) validate() error {
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return errors.New("endpoint is required when client is not provided")
	}
	return nil
}

var _ catalog.AssetStore = (*Store)(nil)

// Store implements catalog.AssetStore. Objects are keyed
// "<namespace>/<uuid>" without extension so the key can be recovered from
// the public URL by catalog.AssetID.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	maxBytes  int64
	http      *http.Client
}

// New creates a Store. It does not contact the server; call EnsureBucket
// during startup.
func New(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create minio client")
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		publicURL = scheme + cfg.Endpoint
	}
	maxBytes := cfg.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}

	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
		http:      newFetchClient(fetchTimeout),
	}, nil
}

// EnsureBucket creates the bucket if missing and grants anonymous read
// access so image URLs can be served directly.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrapf(err, "check bucket %q", s.bucket)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrapf(err, "create bucket %q", s.bucket)
	}
	if err := s.client.SetBucketPolicy(ctx, s.bucket, publicReadPolicy(s.bucket)); err != nil {
		return errors.Wrapf(err, "set policy on bucket %q", s.bucket)
	}
	return nil
}

// Upload stores the image referenced by source under namespace and returns
// its public URL.
func (s *Store) Upload(ctx context.Context, source, namespace string) (*catalog.Asset, error) {
	img, err := s.load(ctx, source)
	if err != nil {
		return nil, err
	}

	key := strings.Trim(namespace, "/") + "/" + uuid.NewString()
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(img.data), int64(len(img.data)), minio.PutObjectOptions{
		ContentType: img.contentType,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "put object %q", key)
	}
	return &catalog.Asset{URL: s.objectURL(key)}, nil
}

// Delete removes the object. Removing a missing object succeeds.
func (s *Store) Delete(ctx context.Context, assetID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, assetID, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "remove object %q", assetID)
	}
	return nil
}

// Ping reports whether the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, "check bucket")
	}
	if !exists {
		return errors.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func (s *Store) objectURL(key string) string {
	return s.publicURL + "/" + s.bucket + "/" + key
}

func publicReadPolicy(bucket string) string {
	return `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},` +
		`"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::` + bucket + `/*"]}]}`
}
