package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("cache", cfg.Cache.Backend),
		zap.Strings("cors_origins", cfg.CORS.Origins),
	)

	deps, err := Open(ctx, lg, m.MeterProvider(), cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Warm the featured snapshot; a cold cache is rebuilt on first read.
	if err := deps.Catalog.RefreshFeatured(ctx); err != nil {
		lg.Warn("Featured snapshot warm-up failed", zap.Error(err))
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(deps.Products))
	healthSvc.AddReadinessCheck("cache", time.Second, health.PingCheck(deps.Cache),
		health.WithFailureThreshold(3),
	)
	healthSvc.AddReadinessCheck("objectstore", 5*time.Second, health.PingCheck(deps.Assets),
		health.WithFailureThreshold(3),
	)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Timeouts.Asset + 10*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           NewHTTPHandler(ctx, cfg, deps, healthSvc, m),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// NewHTTPHandler mounts the catalog API and health endpoints behind the
// middleware chain.
func NewHTTPHandler(
	ctx context.Context,
	cfg *Config,
	deps *Deps,
	healthSvc *health.Health,
	tp httpmiddleware.TelemetryProvider,
) http.Handler {
	h := handler.NewHandler(handler.Config{MaxBodyBytes: cfg.MaxBodyBytes}, deps.Catalog)
	router := h.Router()
	router.Get("/health", health.OKEndpoint)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)

	routeFinder := httpmiddleware.MakeRouteFinder(router)
	return httpmiddleware.Wrap(router,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Rate:    cfg.RateLimit.Rate,
			Burst:   cfg.RateLimit.Burst,
			Methods: []string{http.MethodPost, http.MethodPatch, http.MethodDelete},
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument("storefront-api", routeFinder, tp),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
	)
}
