// Package main Daily Good Timings API
//
// @title           Daily Good Timings API
// @version         1.0
// @description     API расписания благоприятных интервалов, календаря, светового дня и ежедневной рассылки

// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/magabrotheeeer/dvs/internal/app/dvs"
	"github.com/magabrotheeeer/dvs/internal/config"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	level := slog.LevelInfo
	if cfg.Debug() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	logger.Info("starting dvs", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := dvs.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("dvs stopped gracefully")
}
