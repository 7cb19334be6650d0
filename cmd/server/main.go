// Command server runs the Sankalp coordination API: the workflow services, the
// email-link endpoints and the notification fan-out workers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sankalp/internal/platform/config"
	"sankalp/internal/platform/httpserver"
	"sankalp/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then drains HTTP first and the fan-out
// queue second, both bounded by the shutdown timeout.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server, app.router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting sankalp",
			"addr", cfg.Server.Addr,
			"environment", cfg.Environment,
			"postgres", app.db != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		app.close(context.Background())
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := app.dispatcher.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	app.close(shutdownCtx)
	return errors.Join(errs...)
}
