package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"imap-push-notifier/internal/config"
	"imap-push-notifier/internal/logging"
	"imap-push-notifier/internal/supervisor"
)

const shutdownGracePeriod = 15 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Log.Fatalf("Error reading configuration file: %v", err)
	}

	logging.Log.Infof("Starting mail push watcher for %d account(s)", len(cfg.Accounts))

	sup, err := supervisor.Start(cfg)
	if err != nil {
		logging.Log.Fatalf("Error starting account watchers: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logging.Log.Info("Shutdown signal received, stopping watchers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := sup.Shutdown(shutdownCtx); err != nil {
		logging.Log.Errorf("Shutdown did not complete cleanly: %v", err)
	}
}
