// Package main is the entrypoint for the premiumgate API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/premiumgate/premiumgate/internal/auth"
	"github.com/premiumgate/premiumgate/internal/cache"
	"github.com/premiumgate/premiumgate/internal/config"
	"github.com/premiumgate/premiumgate/internal/handler"
	"github.com/premiumgate/premiumgate/internal/metrics"
	"github.com/premiumgate/premiumgate/internal/middleware"
	"github.com/premiumgate/premiumgate/internal/paypal"
	"github.com/premiumgate/premiumgate/internal/poller"
	"github.com/premiumgate/premiumgate/internal/repository"
	"github.com/premiumgate/premiumgate/internal/server"
	"github.com/premiumgate/premiumgate/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// maxJSONBody caps check and admin request bodies.
const maxJSONBody = 4 << 10

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Initialize membership store
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error(
			"failed to open membership store",
			slog.String("backend", cfg.StoreBackend),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("membership store ready", "backend", cfg.StoreBackend)

	// Initialize cache
	cacheClient, err := openCache(ctx, cfg, logger)
	if err != nil {
		logger.Error(
			"invalid REDIS_URL",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}

	verifier, err := auth.NewKeyVerifier(cfg.GetAdminAPIKeyHashes())
	if err != nil {
		logger.Error("invalid ADMIN_API_KEY_HASHES", "error", err)
		os.Exit(1)
	}
	if !verifier.Enabled() {
		logger.Warn("no admin key hashes configured; admin endpoints are disabled")
	}

	reportingLoc, err := cfg.ReportingLocation()
	if err != nil {
		logger.Error("invalid reporting zone", "error", err)
		os.Exit(1)
	}

	recorder := metrics.NewInMemory()

	paypalClient := paypal.NewClient(paypal.Config{
		BaseURL:           cfg.PayPalBaseURL,
		ClientID:          cfg.PayPalClientID,
		ClientSecret:      cfg.PayPalClientSecret,
		Timeout:           cfg.PayPalTimeout,
		ReportingTimeout:  cfg.PayPalReportingTimeout,
		ReportingLocation: reportingLoc,
		PageSize:          cfg.PayPalPageSize,
		WebhookID:         cfg.PayPalWebhookID,
	}, logger, recorder)

	// Initialize services
	premiumService := service.NewPremiumService(cacheClient, store, cfg.StoreTimeout, logger, recorder)

	reconcilerOpts := []service.ReconcilerOption{service.WithStoreTimeout(cfg.StoreTimeout)}
	if cfg.WebhookVerifySignature {
		reconcilerOpts = append(reconcilerOpts, service.WithSignatureVerifier(paypalClient))
		logger.Info("webhook signature verification enabled")
	}
	reconciler := service.NewReconciler(paypalClient, store, logger, recorder, reconcilerOpts...)

	schedule := ""
	if cfg.PollerEnabled {
		schedule = cfg.PollerSchedule
	}
	transactionPoller, err := poller.New(paypalClient, reconciler, poller.Config{
		Schedule: schedule,
		Location: reportingLoc,
		Window:   poller.DefaultWindow,
		Apply:    cfg.PollerApply,
	}, logger, recorder)
	if err != nil {
		logger.Error("failed to configure transaction poller", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	h := handler.New(version)
	healthHandler := handler.NewHealthHandler(store, cfg.StoreBackend, cacheClient)
	metricsHandler := handler.NewMetricsHandler(recorder)
	premiumHandler := handler.NewPremiumHandler(premiumService, logger)
	webhookHandler := handler.NewWebhookHandler(reconciler, cfg.MaxWebhookBodySize, logger)
	adminHandler := handler.NewAdminHandler(store, cacheClient, transactionPoller, cfg.StoreTimeout, logger)

	r := setupRouter(routes{
		h:       h,
		health:  healthHandler,
		metrics: metricsHandler,
		premium: premiumHandler,
		webhook: webhookHandler,
		admin:   adminHandler,
	}, cacheClient, verifier, cfg, logger)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered in dependency order; shutdown runs in reverse.
	srv.OnShutdown("store", func(context.Context) error {
		store.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})
	if cfg.PollerEnabled {
		transactionPoller.Start()
	}
	srv.OnShutdown("poller", transactionPoller.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"prefix", cfg.APIPrefix,
		"env", cfg.AppEnv,
		"store", cfg.StoreBackend,
		"poller_enabled", cfg.PollerEnabled,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore builds the configured membership store backend.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreDynamoDB:
		return repository.NewDynamoStore(ctx, repository.DynamoConfig{
			Region:          cfg.AWSRegion,
			Table:           cfg.DynamoDBTable,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
	case config.StorePostgres:
		return repository.New(ctx, cfg.DatabaseURL, cfg.MembershipTable)
	case config.StoreMemory:
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// openCache builds the Redis cache. Only a malformed URL is fatal: a failed
// startup ping is logged and the service runs with every cache call missing.
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cache.Cache, error) {
	c, err := cache.New(cfg.RedisURL, cfg.RedisTTL, cache.WithOpTimeout(cfg.CacheTimeout))
	if err != nil {
		return nil, err
	}

	if err := c.Ping(ctx); err != nil {
		logger.Warn(
			"Redis unreachable at startup; serving lookups from the store",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return c, nil
	}

	logger.Info("connected to Redis", "ttl", cfg.RedisTTL)
	return c, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "premiumgate")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routes struct {
	h       *handler.Handler
	health  *handler.HealthHandler
	metrics *handler.MetricsHandler
	premium *handler.PremiumHandler
	webhook *handler.WebhookHandler
	admin   *handler.AdminHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	rt routes,
	limiter middleware.IPRateLimiter,
	verifier middleware.AdminKeyVerifier,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	// Health endpoints (no auth required)
	r.Get("/healthz", rt.health.Healthz)
	r.Get("/readyz", rt.health.Readyz)
	r.Get("/metrics", rt.metrics.Metrics)

	// Root info endpoint
	r.Get("/", rt.h.Info)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: limiter,
		Enabled: cfg.RateLimitCheckEnabled,
		RPS:     cfg.RateLimitCheckRPS,
		Burst:   cfg.RateLimitCheckBurst,
	}

	adminCfg := middleware.AdminAuthConfig{
		Logger:   logger,
		Verifier: verifier,
	}

	api := func(r chi.Router) {
		// Status checks (public, rate limited per IP)
		r.Route("/premium", func(r chi.Router) {
			r.Use(middleware.RateLimitIP(rateLimitCfg))
			r.Get("/check", rt.premium.CheckQuery)
			r.With(middleware.MaxBodySize(maxJSONBody)).Post("/check", rt.premium.CheckBody)
		})

		// Provider notifications; the handler caps the body itself so
		// oversized deliveries still get a 200.
		r.Post("/webhooks/paypal", rt.webhook.PayPal)

		// Admin operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(adminCfg))
			r.Use(middleware.MaxBodySize(maxJSONBody))
			r.Put("/members/{email}", rt.admin.SetMembership)
			r.Post("/poll", rt.admin.Poll)
		})
	}

	if prefix := apiPrefix(cfg.APIPrefix); prefix == "" {
		r.Group(api)
	} else {
		r.Route(prefix, api)
	}

	// 404 and 405 handlers
	r.NotFound(rt.h.NotFound)
	r.MethodNotAllowed(rt.h.MethodNotAllowed)

	return r
}

// apiPrefix normalizes API_PREFIX to "/x" form. An empty result mounts the
// API at the root.
func apiPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
