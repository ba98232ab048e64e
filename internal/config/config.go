package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvDevelopment = "development"

// Config holds application configuration
type Config struct {
	Env      string
	HTTP     HTTPConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Limit    RateLimitConfig
	RedisURL string
	LogLevel string
}

type HTTPConfig struct {
	Addr            string
	FrontendURL     string
	ShutdownTimeout time.Duration
	// TrustProxy takes client addresses from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

type DatabaseConfig struct {
	URL string
	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshSessionTTL  time.Duration
	RevokeOnLogout     bool
	RotateRefreshToken bool
	// InsecureCookies drops the Secure flag from the refresh cookie so it
	// travels over plain HTTP. Development only.
	InsecureCookies bool
}

type RateLimitConfig struct {
	LoginRPS   float64
	LoginBurst int
}

// Load reads an optional .env file and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("HTTP_ADDR", "0.0.0.0:3333")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_SESSION_TTL", "720h")
	v.SetDefault("AUTH_REVOKE_ON_LOGOUT", false)
	v.SetDefault("AUTH_ROTATE_REFRESH", false)
	v.SetDefault("LOGIN_RATE_LIMIT_RPS", 1.0)
	v.SetDefault("LOGIN_RATE_LIMIT_BURST", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TRUST_PROXY_HEADERS", false)

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Addr:            v.GetString("HTTP_ADDR"),
			FrontendURL:     v.GetString("FRONTEND_URL"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
			TrustProxy:      v.GetBool("TRUST_PROXY_HEADERS"),
		},
		Database: DatabaseConfig{
			URL:         v.GetString("DATABASE_URL"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			JWTSecret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:     v.GetDuration("ACCESS_TOKEN_TTL"),
			RefreshSessionTTL:  v.GetDuration("REFRESH_SESSION_TTL"),
			RevokeOnLogout:     v.GetBool("AUTH_REVOKE_ON_LOGOUT"),
			RotateRefreshToken: v.GetBool("AUTH_ROTATE_REFRESH"),
		},
		Limit: RateLimitConfig{
			LoginRPS:   v.GetFloat64("LOGIN_RATE_LIMIT_RPS"),
			LoginBurst: v.GetInt("LOGIN_RATE_LIMIT_BURST"),
		},
		RedisURL: v.GetString("REDIS_URL"),
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	// COOKIE_SECURE defaults to false in development, where the server is
	// usually reached over plain HTTP, and to true everywhere else.
	cfg.Auth.InsecureCookies = cfg.IsDevelopment()
	if v.IsSet("COOKIE_SECURE") {
		cfg.Auth.InsecureCookies = !v.GetBool("COOKIE_SECURE")
	}

	return cfg, cfg.Validate()
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Validate rejects configurations the server must not start with. A missing
// JWT secret is only tolerated in development.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", c.Env))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Auth.RefreshSessionTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_SESSION_TTL must be positive"))
	}
	if c.Limit.LoginRPS < 0 || c.Limit.LoginBurst < 0 {
		errs = append(errs, errors.New("login rate limit must not be negative"))
	}
	if c.Limit.LoginRPS > 0 && c.Limit.LoginBurst < 1 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT_BURST must be at least 1 when LOGIN_RATE_LIMIT_RPS is set"))
	}
	if c.Auth.InsecureCookies && !c.IsDevelopment() {
		errs = append(errs, fmt.Errorf("COOKIE_SECURE=false is only allowed when APP_ENV=%s", EnvDevelopment))
	}

	return errors.Join(errs...)
}
