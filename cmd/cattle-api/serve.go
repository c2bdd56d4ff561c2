package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adityaks/cattle-api/internal/config"
	"github.com/adityaks/cattle-api/internal/handlers"
	"github.com/adityaks/cattle-api/internal/logging"
	"github.com/adityaks/cattle-api/internal/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the classifier HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg := config.Load()
	logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))

	svc := service.New(cfg)
	defer svc.Close()

	// A failed load keeps the process up so /health can report the state
	// and /predict can answer with a service-level error; the Ready state
	// is simply never reached.
	if err := svc.Start(); err != nil {
		slog.Error("startup failed, serving without a model", "error", err)
	}

	handler := handlers.NewHandler(svc, cfg.Server.MaxUploadBytes)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handlers.Routes(handler, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr, "state", svc.State().String())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
