// Command sessionsweep deletes expired refresh sessions. It is meant to run
// periodically, for example from cron.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/vncsmyrnk/fintrack/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/fintrack/internal/core/services"
	"github.com/vncsmyrnk/fintrack/internal/logging"
	"github.com/vncsmyrnk/fintrack/internal/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var dsn, pushgateway string
	var timeout time.Duration
	flag.StringVar(&dsn, "database", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.StringVar(&pushgateway, "pushgateway", os.Getenv("PUSHGATEWAY_URL"), "Prometheus Pushgateway URL, optional")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Job timeout")
	flag.Parse()

	logger := logging.New(os.Stdout, os.Getenv("LOG_LEVEL")).With("job", "sessionsweep")
	os.Exit(run(dsn, pushgateway, timeout, logger))
}

func run(dsn, pushgateway string, timeout time.Duration, logger logging.Logger) int {
	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		logger.Error(ctx, "failed to open database", "error", err)
		return 1
	}
	defer db.Close()

	sweeper := services.NewSessionSweeper(postgres.NewSessionRepository(db), nil)

	logger.Info(ctx, "starting expired session sweep")
	n, err := sweeper.SweepExpired(ctx)
	if err != nil {
		logger.Error(ctx, "sweep failed", "error", err)
		return 1
	}
	metrics.SessionsSwept.Add(float64(n))
	logger.Info(ctx, "sweep completed", "deleted", n)

	if pushgateway != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(metrics.SessionsSwept)
		if err := push.New(pushgateway, "fintrack_sessionsweep").Gatherer(reg).PushContext(ctx); err != nil {
			logger.Warn(ctx, "failed to push metrics", "error", err)
		}
	}
	return 0
}
