package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/vncsmyrnk/fintrack/docs"
	"github.com/vncsmyrnk/fintrack/internal/adapters/ratelimit"
	"github.com/vncsmyrnk/fintrack/internal/logging"
)

type RouterConfig struct {
	Users          *UserHandler
	Auth           *AuthHandler
	Categories     *CategoryHandler
	PaymentMethods *PaymentMethodHandler
	Transactions   *TransactionHandler

	Tokens TokenParser
	// LoginLimiter throttles POST /users/login per client IP. Nil disables it.
	LoginLimiter ratelimit.Limiter
	// Metrics is served on /metrics when set.
	Metrics        prometheus.Gatherer
	AllowedOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it when every request comes through a proxy that sets them.
	TrustProxy bool
	Log        logging.Logger
}

func NewHandler(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{}))
	}
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	authenticated := Authenticator(cfg.Tokens)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", cfg.Users.Register)
		r.Group(func(r chi.Router) {
			if cfg.LoginLimiter != nil {
				r.Use(RateLimit(cfg.LoginLimiter, cfg.Log))
			}
			r.Post("/login", cfg.Users.Login)
		})
		r.Post("/refresh-token", cfg.Auth.RefreshToken)
		r.Post("/logout", cfg.Auth.Logout)
		r.With(authenticated).Get("/me", cfg.Users.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", cfg.Categories.List)
			r.Post("/", cfg.Categories.Create)
			r.Delete("/{id}", cfg.Categories.Delete)
		})

		r.Route("/payment-methods", func(r chi.Router) {
			r.Get("/", cfg.PaymentMethods.List)
			r.Post("/", cfg.PaymentMethods.Create)
			r.Delete("/{id}", cfg.PaymentMethods.Delete)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", cfg.Transactions.List)
			r.Get("/summary", cfg.Transactions.Summary)
			r.Post("/", cfg.Transactions.Create)
			r.Delete("/{id}", cfg.Transactions.Delete)
		})
	})

	return r
}
