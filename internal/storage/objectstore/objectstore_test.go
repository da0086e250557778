package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/catalog"
)

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:9000"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "catalog"
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Endpoint: "localhost:9000"})
	require.Error(t, err)

	_, err = New(Config{Bucket: "catalog"})
	require.Error(t, err)
}

func TestObjectURL_RoundTripsAssetID(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "derived from endpoint",
			cfg:  Config{Endpoint: "minio:9000"},
			want: "http://minio:9000/catalog/products/abc",
		},
		{
			name: "ssl",
			cfg:  Config{Endpoint: "s3.example.com", UseSSL: true},
			want: "https://s3.example.com/catalog/products/abc",
		},
		{
			name: "explicit public url",
			cfg:  Config{Endpoint: "minio:9000", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/catalog/products/abc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, tt.cfg)

			u := s.objectURL("products/abc")
			assert.Equal(t, tt.want, u)
			assert.Equal(t, "products/abc", catalog.AssetID(u))
		})
	}
}

func TestLoad_DataURI(t *testing.T) {
	s := newTestStore(t, Config{MaxImageBytes: 8})

	img, err := s.load(context.Background(), "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), img.data)
	assert.Equal(t, "image/png", img.contentType)

	_, err = s.load(context.Background(), "data:image/png;base64,aGVsbG8gd29ybGQ=")
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = s.load(context.Background(), "data:image/png;base64")
	require.Error(t, err)
}

func TestLoad_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := newTestStore(t, Config{MaxImageBytes: 32})
	// httptest listens on loopback, which the default fetch client refuses.
	s.http = srv.Client()

	img, err := s.load(context.Background(), srv.URL+"/ok.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), img.data)
	assert.Equal(t, "image/jpeg", img.contentType)

	_, err = s.load(context.Background(), srv.URL+"/big")
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = s.load(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoad_Unsupported(t *testing.T) {
	s := newTestStore(t, Config{})

	for _, src := range []string{"", "ftp://example.com/a.png", "/local/file.png"} {
		_, err := s.load(context.Background(), src)
		assert.ErrorIs(t, err, ErrUnsupportedSource, src)
	}
}

func TestLoad_RemoteRejectsInternalAddresses(t *testing.T) {
	var hits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("internal-metadata"))
	}))
	defer internal.Close()

	s := newTestStore(t, Config{})

	img, err := s.load(context.Background(), internal.URL+"/latest/meta-data")
	require.Error(t, err)
	assert.Nil(t, img)
	assert.Contains(t, err.Error(), ErrForbiddenSource.Error())
	assert.Zero(t, hits.Load())
}

func TestCheckAddr(t *testing.T) {
	tests := []struct {
		addr    string
		allowed bool
	}{
		{addr: "127.0.0.1"},
		{addr: "::1"},
		{addr: "10.1.2.3"},
		{addr: "172.16.0.1"},
		{addr: "192.168.1.10"},
		{addr: "169.254.169.254"},
		{addr: "fe80::1"},
		{addr: "fd00::1"},
		{addr: "0.0.0.0"},
		{addr: "::"},
		{addr: "100.64.0.1"},
		{addr: "224.0.0.1"},
		{addr: "::ffff:127.0.0.1"},
		{addr: "93.184.216.34", allowed: true},
		{addr: "2606:4700::1111", allowed: true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := checkAddr(netip.MustParseAddr(tt.addr))
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrForbiddenSource)
		})
	}
}

func TestCheckDialAddr(t *testing.T) {
	assert.ErrorIs(t, checkDialAddr("127.0.0.1:80"), ErrForbiddenSource)
	assert.ErrorIs(t, checkDialAddr("[::1]:443"), ErrForbiddenSource)
	assert.NoError(t, checkDialAddr("93.184.216.34:443"))
	assert.Error(t, checkDialAddr("no-port"))
}

func TestCheckRedirect(t *testing.T) {
	redirect := func(raw string) *http.Request {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		return &http.Request{URL: u}
	}
	one := []*http.Request{redirect("https://images.example.com/a.png")}

	assert.NoError(t, checkRedirect(redirect("https://cdn.example.com/a.png"), one))
	assert.ErrorIs(t, checkRedirect(redirect("http://169.254.169.254/latest"), one), ErrForbiddenSource)
	assert.ErrorIs(t, checkRedirect(redirect("http://[::1]:8080/"), one), ErrForbiddenSource)
	assert.ErrorIs(t, checkRedirect(redirect("file:///etc/passwd"), one), ErrUnsupportedSource)

	many := make([]*http.Request, maxRedirects)
	for i := range many {
		many[i] = redirect("https://cdn.example.com/hop")
	}
	assert.Error(t, checkRedirect(redirect("https://cdn.example.com/a.png"), many))
}
