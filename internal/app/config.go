package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (STORE_DATABASEURL or DATABASE_URL)" flag:"database-url"`
	MaxBodyBytes int64  `default:"10485760" usage:"Maximum request body size in bytes" flag:"max-body-bytes"`
	Database     DatabaseConfig
	Cache        CacheConfig
	ObjectStore  ObjectStoreConfig
	Timeouts     TimeoutsConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
	Seed         SeedConfig
}

// DatabaseConfig tunes the PostgreSQL pool.
type DatabaseConfig struct {
	MaxConns        int           `default:"10" usage:"Maximum pool connections"`
	MinConns        int           `default:"0" usage:"Minimum idle pool connections"`
	MaxConnLifetime time.Duration `default:"1h" usage:"Maximum connection lifetime"`
}

// CacheConfig selects and configures the featured products cache.
type CacheConfig struct {
	Backend     string        `default:"redis" usage:"Featured cache backend: redis or memory"`
	RedisURL    string        `usage:"Redis URL (or REDIS_URL)" flag:"redis-url"`
	KeyPrefix   string        `default:"storefront:" usage:"Prefix for cache keys"`
	FeaturedKey string        `default:"featured_products" usage:"Cache key of the featured snapshot"`
	FeaturedTTL time.Duration `default:"10m" usage:"Featured snapshot lifetime" flag:"featured-ttl"`
}

// ObjectStoreConfig points at the MinIO/S3 bucket holding product images.
type ObjectStoreConfig struct {
	Endpoint      string `default:"localhost:9000" usage:"Object store endpoint"`
	Bucket        string `default:"catalog" usage:"Bucket for product images"`
	AccessKey     string `usage:"Object store access key"`
	SecretKey     string `usage:"Object store secret key"`
	UseSSL        bool   `default:"false" usage:"Use HTTPS for the object store"`
	PublicURL     string `usage:"Base URL under which images are served"`
	MaxImageBytes int64  `default:"10485760" usage:"Maximum image size in bytes"`
}

// TimeoutsConfig bounds calls to each collaborator of the catalog.
type TimeoutsConfig struct {
	Store time.Duration `default:"5s" usage:"Product store call timeout"`
	Cache time.Duration `default:"500ms" usage:"Featured cache call timeout"`
	Asset time.Duration `default:"30s" usage:"Image store call timeout"`
}

// RateLimitConfig controls per-client limiting of mutating requests.
type RateLimitConfig struct {
	Rate  float64 `default:"5" usage:"Sustained mutating requests per second per client"`
	Burst int     `default:"20" usage:"Mutating request burst per client"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `usage:"Allowed CORS origins (or CLIENT_URL, comma-separated); empty allows any origin"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies, auth headers) for listed origins" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// SeedConfig controls the catalog seeding command.
type SeedConfig struct {
	ProductsFile string `default:"db/seed/products.json" usage:"Path to the seed products JSON file"`
	Concurrency  int    `default:"4" usage:"Number of products created concurrently"`
}

// Load fills dst from STORE_-prefixed environment variables, flags and YAML
// config files.
func Load(dst any) error {
	loader := aconfig.LoaderFor(dst, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return errors.Wrap(err, "load config")
	}
	return nil
}

// LoadConfig loads the API server configuration and applies platform
// defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := Load(&cfg); err != nil {
		return nil, err
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set STORE_DATABASEURL or DATABASE_URL")
	}
	switch c.Cache.Backend {
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New("redis URL is required for the redis cache backend: set STORE_CACHE_REDISURL or REDIS_URL")
		}
	case "memory":
	default:
		return errors.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (DATABASE_URL, REDIS_URL, PORT, CLIENT_URL) onto the configuration.
func (c *Config) applyPlatformDefaults() {
	EnvFallback(&c.DatabaseURL, "DATABASE_URL")
	EnvFallback(&c.Cache.RedisURL, "REDIS_URL")
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	if v := os.Getenv("CLIENT_URL"); v != "" && len(c.CORS.Origins) == 0 {
		c.CORS.Origins = SplitList(v)
	}
	// Without an origin list any origin is allowed, which browsers only
	// accept for requests without credentials.
	if len(c.CORS.Origins) == 0 {
		c.CORS.AllowCredentials = false
	}
}

// EnvFallback sets *dst from the environment variable when it is empty.
func EnvFallback(dst *string, env string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
