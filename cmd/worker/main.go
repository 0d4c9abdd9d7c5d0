package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	"go.temporal.io/sdk/client"
	"go.uber.org/fx"
	_ "golang.org/x/crypto/x509roots/fallback"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/ranger/internal/logger"
	"github.com/jdholdren/ranger/internal/posts"
	"github.com/jdholdren/ranger/internal/queue"
	"github.com/jdholdren/ranger/internal/reconcile"
	rngsqlite "github.com/jdholdren/ranger/internal/sqlite"
	usersync "github.com/jdholdren/ranger/internal/sync"
	"github.com/jdholdren/ranger/internal/webhook"
	"github.com/jdholdren/ranger/internal/worker"
)

type config struct {
	Database         string `env:"DATABASE, required"`
	TemporalHostPort string `env:"TEMPORAL_HOST_PORT, required"`

	MediaAPIURL string `env:"MEDIA_API_URL, default=https://graph.instagram.com"`
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

	if err := worker.EnsureDefaultNamespace(ctx, temporalCli.WorkflowService()); err != nil {
		log.Fatalf("error ensuring namespace: %s", err)
	}

	// Assemble the worker's pieces: sync drives reconciliation, which
	// enqueues back onto the same task queue for webhook delivery.
	jobs := queue.NewTemporal(temporalCli, worker.TaskQueue)
	syncer := usersync.New(repo, posts.NewClient(cfg.MediaAPIURL), reconcile.New(repo, jobs))
	dispatcher := webhook.NewDispatcher(repo, webhook.NewRunner())

	w, err := worker.NewWorker(ctx, repo, temporalCli, syncer, dispatcher)
	if err != nil {
		log.Fatalf("error setting up worker: %s", err)
	}

	fx.New(
		fx.Invoke(func(lc fx.Lifecycle) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					return w.Start()
				},
				OnStop: func(context.Context) error {
					w.Stop()
					return nil
				},
			})
		}),
	).Run()
}
