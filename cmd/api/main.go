package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	"go.temporal.io/sdk/client"
	"go.uber.org/fx"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/ranger/internal/api"
	"github.com/jdholdren/ranger/internal/logger"
	"github.com/jdholdren/ranger/internal/migrations"
	"github.com/jdholdren/ranger/internal/queue"
	"github.com/jdholdren/ranger/internal/ranger"
	rngsqlite "github.com/jdholdren/ranger/internal/sqlite"
	"github.com/jdholdren/ranger/internal/worker"
)

type config struct {
	Database         string `env:"DATABASE, required"`
	TemporalHostPort string `env:"TEMPORAL_HOST_PORT, required"`

	Port       int    `env:"PORT, default=4444"`
	CorsHeader string `env:"CORS_HEADER, default=*"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	l := slog.New(logger.NewContextHandler(slog.NewTextHandler(os.Stdout, nil)))
	slog.SetDefault(l)

	// Connect to the sqlite db
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_journal_mode=WAL&_busy_timeout=5000", cfg.Database))
	if err != nil {
		log.Fatalf("error opening database: %s", err)
	}
	defer dbx.Close()

	// Run all migrations
	if err := migrations.Run(dbx); err != nil {
		log.Fatalf("error running migrations: %s", err)
	}

	repo := rngsqlite.New(dbx)

	// Retry until temporal is ready
	var temporalCli client.Client
	if err := retry.Fibonacci(ctx, 1*time.Second, func(ctx context.Context) error {
		c, err := client.Dial(client.Options{
			HostPort: cfg.TemporalHostPort,
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		temporalCli = c

		return nil
	}); err != nil {
		log.Fatalln("Unable to create Temporal client:", err)
	}

	// Start the application
	fx.New(
		fx.Supply(
			api.ServerConfig{
				Port:       cfg.Port,
				CorsHeader: cfg.CorsHeader,
			},
			fx.Annotate(ctx, fx.As(new(context.Context))),
			fx.Annotate(repo, fx.As(new(ranger.Repository))),
			fx.Annotate(queue.NewTemporal(temporalCli, worker.TaskQueue), fx.As(new(queue.Enqueuer))),
		),
		api.Module,
		fx.Invoke(func(lc fx.Lifecycle, srvr *api.Server) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						if err := srvr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
							slog.Error("server stopped", "error", err)
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return srvr.Shutdown(ctx)
				},
			})
		}),
	).Run()
}
