package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/debsndprgs5/transcendence-game/internal/factory"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	cfg := factory.LoadFromEnv()

	app, err := factory.New(cfg, logger)
	if err != nil {
		logger.Error("failed to build application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}

	if err := app.Server.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	app.Close()

	logger.Info("goodbye")
}

func logLevel() slog.Level {
	switch os.Getenv("PONG_LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
