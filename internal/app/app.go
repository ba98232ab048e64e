// Package app assembles the fintrack server from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	handler "github.com/vncsmyrnk/fintrack/internal/adapters/handler/http"
	"github.com/vncsmyrnk/fintrack/internal/adapters/ratelimit"
	"github.com/vncsmyrnk/fintrack/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/fintrack/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/fintrack/internal/auth"
	"github.com/vncsmyrnk/fintrack/internal/config"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
	"github.com/vncsmyrnk/fintrack/internal/core/services"
	"github.com/vncsmyrnk/fintrack/internal/logging"
	"github.com/vncsmyrnk/fintrack/internal/metrics"
)

// MemoryURL selects the in-process store instead of PostgreSQL.
const MemoryURL = "memory://"

type repositories struct {
	users          ports.UserRepository
	sessions       ports.SessionRepository
	categories     ports.CategoryRepository
	paymentMethods ports.PaymentMethodRepository
	transactions   ports.TransactionRepository
}

type App struct {
	cfg *config.Config
	log logging.Logger

	db    *sql.DB
	redis *redis.Client

	Sessions *services.SessionService
	Registry *prometheus.Registry
	Handler  http.Handler
}

// Option tweaks construction. Used by tests.
type Option func(*options)

type options struct {
	now        func() time.Time
	bcryptCost int
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithBcryptCost(cost int) Option {
	return func(o *options) { o.bcryptCost = cost }
}

// New opens the store, applies migrations when configured and builds the
// HTTP handler. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, log: log}

	repos, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn(ctx, "JWT_SECRET is not set, using the development signing key")
		secret = auth.DevelopmentSecret
	}
	tokens := auth.NewIssuer(secret, auth.WithTTL(cfg.Auth.AccessTokenTTL), auth.WithClock(o.now))

	a.Sessions = services.NewSessionService(repos.sessions, tokens,
		services.WithSessionTTL(cfg.Auth.RefreshSessionTTL),
		services.WithRotation(cfg.Auth.RotateRefreshToken),
		services.WithClock(o.now),
	)
	users := services.NewUserService(repos.users, a.Sessions, tokens, auth.NewBcryptHasher(o.bcryptCost))

	limiter, err := a.loginLimiter(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(a.Registry)

	cookies := handler.SessionCookie{MaxAge: cfg.Auth.RefreshSessionTTL, Insecure: cfg.Auth.InsecureCookies}
	router := handler.NewHandler(handler.RouterConfig{
		Users:          handler.NewUserHandler(users, cookies, log),
		Auth:           handler.NewAuthHandler(a.Sessions, cookies, cfg.Auth.RevokeOnLogout, log),
		Categories:     handler.NewCategoryHandler(services.NewCategoryService(repos.categories), log),
		PaymentMethods: handler.NewPaymentMethodHandler(services.NewPaymentMethodService(repos.paymentMethods), log),
		Transactions: handler.NewTransactionHandler(
			services.NewTransactionService(repos.transactions, repos.categories, repos.paymentMethods), log),
		Tokens:         tokens,
		LoginLimiter:   limiter,
		Metrics:        a.Registry,
		AllowedOrigins: allowedOrigins(cfg.HTTP.FrontendURL),
		TrustProxy:     cfg.HTTP.TrustProxy,
		Log:            log,
	})
	a.Handler = otelhttp.NewHandler(router, "fintrack")

	return a, nil
}

func (a *App) openStore(ctx context.Context) (*repositories, error) {
	if a.cfg.Database.URL == MemoryURL {
		a.log.Warn(ctx, "using the in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users:          store.Users(),
			sessions:       store.Sessions(),
			categories:     store.Categories(),
			paymentMethods: store.PaymentMethods(),
			transactions:   store.Transactions(),
		}, nil
	}

	db, err := postgres.Open(ctx, a.cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if a.cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	a.db = db

	return &repositories{
		users:          postgres.NewUserRepository(db),
		sessions:       postgres.NewSessionRepository(db),
		categories:     postgres.NewCategoryRepository(db),
		paymentMethods: postgres.NewPaymentMethodRepository(db),
		transactions:   postgres.NewTransactionRepository(db),
	}, nil
}

// loginLimiter returns a Redis backed limiter when REDIS_URL is set so that
// several replicas share one budget. A zero rate disables limiting.
func (a *App) loginLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	limit := a.cfg.Limit
	if limit.LoginRPS == 0 {
		return nil, nil
	}
	if a.cfg.RedisURL == "" {
		return ratelimit.NewMemory(limit.LoginRPS, limit.LoginBurst), nil
	}

	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	a.redis = redis.NewClient(opts)
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return ratelimit.NewRedis(a.redis, limit.LoginRPS, limit.LoginBurst, time.Second), nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info(ctx, "server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info(context.Background(), "gracefully shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func allowedOrigins(frontendURL string) []string {
	var origins []string
	for _, o := range strings.Split(frontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, strings.TrimRight(o, "/"))
		}
	}
	return origins
}
