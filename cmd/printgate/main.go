package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/printgate/printgate/internal/api"
	"github.com/printgate/printgate/internal/api/handlers"
	"github.com/printgate/printgate/internal/api/middleware"
	"github.com/printgate/printgate/internal/config"
	"github.com/printgate/printgate/internal/db"
	"github.com/printgate/printgate/internal/dispatch"
	"github.com/printgate/printgate/internal/logging"
	"github.com/printgate/printgate/internal/printers"
	"github.com/printgate/printgate/internal/webhook"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "printgate: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	sender := webhook.NewSender(cfg.Webhooks, log.Named("webhook"))
	sender.Start()
	defer sender.Stop()

	fetchClient := &http.Client{Timeout: cfg.Dispatch.FetchTimeout}
	dispatcher := dispatch.NewDispatcher(
		dispatch.NewResolver(fetchClient),
		dispatch.NewSpoolDriver(cfg.Dispatch.SpoolCommand, cfg.Dispatch.SpoolDir, log.Named("spool")),
		dispatch.NewRawSocketDriver(cfg.Dispatch.DialTimeout),
		dispatch.NewIPPDriver(nil),
		log.Named("dispatch"),
	)

	auth := middleware.NewAuth(cfg.Auth)
	if !auth.Enabled() {
		log.Warn("no api key configured, authentication is disabled")
	}

	router := api.NewRouter(cfg, auth, api.Handlers{
		Print:    handlers.NewPrintHandler(dispatcher, sender, log.Named("print")),
		Printers: handlers.NewPrinterHandler(printers.NewLister()),
		History:  handlers.NewHistoryHandler(),
		Webhooks: handlers.NewWebhookHandler(),
	})

	server := api.NewServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
