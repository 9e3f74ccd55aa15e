// Package app wires the application container: config, logging, the job
// queue, the websocket hub and the HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cleansed/internal/config"
	"cleansed/internal/exporter"
	"cleansed/internal/pipeline"
	handlers "cleansed/internal/transport/http"
	"cleansed/internal/ws"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Application is the composed server.
type Application struct {
	Config *config.Config
	Server *http.Server
	Hub    *ws.Hub
	Queue  *pipeline.JobQueue
	Store  *pipeline.MemoryJobStore
	Writer *exporter.Writer
	Logger *slog.Logger
}

// New builds the application from loaded configuration.
func New(cfg *config.Config) (*Application, error) {
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	store := pipeline.NewMemoryJobStore()
	hub := ws.NewHub(logger)
	writer := exporter.NewWriter(cfg.Paths.OutputDir)
	runner := pipeline.NewRunner(writer, hub, logger)
	queue := pipeline.NewJobQueue(cfg.Jobs.Workers, store, runner, logger)

	jobs := handlers.NewJobsHandler(store, queue, writer, cfg.Paths.UploadDir, logger)
	router := handlers.NewRouter(cfg, jobs, hub, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		Config: cfg,
		Server: server,
		Hub:    hub,
		Queue:  queue,
		Store:  store,
		Writer: writer,
		Logger: logger,
	}, nil
}

// Run starts the hub, the queue and the HTTP server, then blocks until a
// shutdown signal arrives.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.Hub.Run()
	a.Queue.Start(ctx)
	go a.janitor(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening",
			slog.String("addr", a.Server.Addr),
			slog.String("version", Version))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("server shutdown error", slog.String("error", err.Error()))
	}
	if err := a.Queue.Stop(a.Config.Server.ShutdownTimeout); err != nil {
		a.Logger.Warn("queue shutdown error", slog.String("error", err.Error()))
	}
	a.Hub.Stop()
	return nil
}

// janitor periodically purges terminal jobs past the retention window and
// deletes their artifacts.
func (a *Application) janitor(ctx context.Context) {
	interval := a.Config.Jobs.Retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := a.Store.CleanupOldJobs(a.Config.Jobs.Retention)
			for _, job := range removed {
				if job.FilePath != "" {
					os.Remove(job.FilePath)
				}
				if job.Result != nil && job.Result.OutputPath != "" {
					os.Remove(job.Result.OutputPath)
				}
				os.Remove(a.Writer.ErrorReportPath(job.ID))
			}
			if len(removed) > 0 {
				a.Logger.Info("purged expired jobs", slog.Int("count", len(removed)))
			}
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(
		slog.String("service", "cleansed"),
		slog.String("version", Version),
	), nil
}
