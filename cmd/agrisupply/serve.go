package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agri-supply/internal/config"
	"agri-supply/internal/logging"
	"agri-supply/internal/metrics"
	"agri-supply/internal/platform/database"
	"agri-supply/internal/server"
	"agri-supply/pkg/notify"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.IsDev())
	log := logging.New("main")

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.Options{
		MaxConns:      cfg.DBMaxConns,
		TxIdleTimeout: time.Duration(cfg.TxIdleTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	var rec metrics.Recorder = metrics.NopRecorder{}
	if cfg.MetricsEnabled {
		if rec, err = metrics.NewPromRecorder(nil); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
	}

	var notifier notify.ServiceInterface = notify.NopService{}
	if cfg.SESEnabled {
		if notifier, err = notify.NewSESService(ctx, cfg.AWSRegion, cfg.SESFromAddress); err != nil {
			return err
		}
	}

	e := server.New(server.Deps{Config: cfg, Pool: pool, Notifier: notifier, Metrics: rec})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("listening")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
