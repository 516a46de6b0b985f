package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tokenquest/sdk-go/core/logging"
	"github.com/tokenquest/sdk-go/core/registry"
	"github.com/tokenquest/sdk-go/relay"
)

func main() {
	cfg := relay.LoadConfig()
	if err := logging.Init(cfg.Debug); err != nil {
		panic(err)
	}
	defer logging.Logger.Sync() //nolint:errcheck

	server := relay.NewServer(cfg, registry.Default())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logging.Logger.Fatal("relay failed", zap.Error(err))
		}
	case sig := <-stop:
		logging.Logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logging.Logger.Error("shutdown failed", zap.Error(err))
		}
	}
}
