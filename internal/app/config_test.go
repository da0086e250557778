package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/pkg/httpmiddleware"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, SplitList(" http://a.test ,, http://b.test,"))
	assert.Empty(t, SplitList(""))
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")

	var empty string
	EnvFallback(&empty, "DATABASE_URL")
	assert.Equal(t, "postgres://env", empty)

	set := "postgres://flag"
	EnvFallback(&set, "DATABASE_URL")
	assert.Equal(t, "postgres://flag", set)
}

func TestApplyPlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("PORT", "9090")
	t.Setenv("CLIENT_URL", "https://shop.test,https://admin.shop.test")

	cfg := Config{Addr: "0.0.0.0:8080"}
	cfg.applyPlatformDefaults()

	assert.Equal(t, "postgres://db", cfg.DatabaseURL)
	assert.Equal(t, "redis://cache:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
	assert.Equal(t, []string{"https://shop.test", "https://admin.shop.test"}, cfg.CORS.Origins)
}

func TestApplyPlatformDefaults_AnyOriginWithoutClientURL(t *testing.T) {
	t.Setenv("CLIENT_URL", "")

	cfg := Config{CORS: CORSConfig{AllowCredentials: true}}
	cfg.applyPlatformDefaults()

	assert.Empty(t, cfg.CORS.Origins)
	assert.False(t, cfg.CORS.AllowCredentials)

	h := httpmiddleware.CORS(httpmiddleware.CORSConfig{
		AllowOrigins:     cfg.CORS.Origins,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for _, origin := range []string{"https://shop.test", "http://localhost:3000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), origin)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"), origin)
	}
}

func TestApplyPlatformDefaults_ClientURLKeepsCredentials(t *testing.T) {
	t.Setenv("CLIENT_URL", "https://shop.test")

	cfg := Config{CORS: CORSConfig{AllowCredentials: true}}
	cfg.applyPlatformDefaults()

	assert.Equal(t, []string{"https://shop.test"}, cfg.CORS.Origins)
	assert.True(t, cfg.CORS.AllowCredentials)
}

func TestApplyPlatformDefaults_ExplicitAddrWins(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg := Config{Addr: "127.0.0.1:3000"}
	cfg.applyPlatformDefaults()

	assert.Equal(t, "127.0.0.1:3000", cfg.Addr)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing database",
			cfg:     Config{Cache: CacheConfig{Backend: "memory"}},
			wantErr: "database URL is required",
		},
		{
			name:    "redis without url",
			cfg:     Config{DatabaseURL: "postgres://db", Cache: CacheConfig{Backend: "redis"}},
			wantErr: "redis URL is required",
		},
		{
			name:    "unknown backend",
			cfg:     Config{DatabaseURL: "postgres://db", Cache: CacheConfig{Backend: "memcached"}},
			wantErr: `unknown cache backend "memcached"`,
		},
		{
			name: "memory",
			cfg:  Config{DatabaseURL: "postgres://db", Cache: CacheConfig{Backend: "memory"}},
		},
		{
			name: "redis",
			cfg:  Config{DatabaseURL: "postgres://db", Cache: CacheConfig{Backend: "redis", RedisURL: "redis://localhost"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
