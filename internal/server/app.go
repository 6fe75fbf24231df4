// Package server wires the treasure hunt server together: storage, the
// activity log with its optional SQL store, the TCP protocol listener and
// the optional health endpoint. It also owns signal handling and shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/treasurehunt/internal/logging"
	"github.com/dmitrijs2005/treasurehunt/internal/server/activity"
	"github.com/dmitrijs2005/treasurehunt/internal/server/config"
	"github.com/dmitrijs2005/treasurehunt/internal/server/repository"
	"github.com/dmitrijs2005/treasurehunt/internal/server/services"
	"github.com/dmitrijs2005/treasurehunt/internal/server/shared/db"
	"github.com/dmitrijs2005/treasurehunt/internal/server/tcp"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/treasurehunt/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    db.RepositoryManager
	activity *activity.Log
	tcp      *tcp.Server
	health   *gs.HealthServer
}

// NewApp builds the server from c with a JSON operational logger on stdout.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, logging.NewJSONLogger(os.Stdout, c.LogLevel))
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repo, err := repository.New(c.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	var opts []activity.Option
	if c.EventStoreDriver != "" {
		store, err := db.Open(ctx, c.EventStoreDriver, c.EventStoreDSN)
		if err != nil {
			return nil, fmt.Errorf("event store init error: %w", err)
		}
		app.store = store
		opts = append(opts, activity.WithStore(store.Events(), logger.With("module", "activity")))
		app.logStoreState(ctx)
	}

	app.activity, err = activity.Open(c.ActivityLogPath, opts...)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("activity log init error: %w", err)
	}

	svc := services.NewTreasureService(repo, app.activity, c.ChunkSize, logger)
	app.tcp = tcp.NewServer(c.ListenAddr, svc, app.activity, logger, tcp.Options{
		IdleTimeout:    c.IdleTimeout,
		MaxConnections: c.MaxConnections,
		ShutdownGrace:  c.ShutdownGrace,
	})

	if c.HealthAddr != "" {
		app.health = gs.NewHealthServer(c.HealthAddr, logger)
	}

	logger.Info(ctx, "Storage ready", "dir", repo.Dir())
	return app, nil
}

// logStoreState logs the newest persisted event, if any.
func (app *App) logStoreState(ctx context.Context) {
	last, err := app.store.Events().Recent(ctx, 1)
	if err != nil {
		app.logger.Warn(ctx, "Event store read failed", "error", err)
		return
	}
	if len(last) == 0 {
		app.logger.Info(ctx, "Event store ready", "driver", app.config.EventStoreDriver, "last_event", "none")
		return
	}
	app.logger.Info(ctx, "Event store ready",
		"driver", app.config.EventStoreDriver,
		"last_event", last[0].Kind,
		"last_event_at", last[0].OccurredAt,
	)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) runTCPServer(ctx context.Context) error {
	if app.health != nil {
		app.health.SetServing(true)
		defer app.health.SetServing(false)
	}
	return app.tcp.Run(ctx)
}

// Run serves until ctx is cancelled, a termination signal arrives, or one
// of the servers fails. Resources are released before it returns.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.runTCPServer(gctx)
	})

	if app.health != nil {
		g.Go(func() error {
			return app.health.Run(gctx)
		})
	}

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
		app.activity.Record(ctx, activity.ServerError(err))
	}

	app.close()
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) close() {
	if app.activity != nil {
		_ = app.activity.Close()
	}
	if app.store != nil {
		_ = app.store.Close()
	}
}
