package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/internal/bootstrap"
	"github.com/yulawdev/vocalis/internal/config"
	"github.com/yulawdev/vocalis/usecase"
)

func main() {
	godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engines, err := bootstrap.BuildEngines(ctx, cfg, cfg.EngineKind, logger)
	if err != nil {
		logger.Fatal("engine construction failed", zap.Error(err))
	}

	ctrl, err := usecase.StartSession(ctx, cfg.EngineKind, cfg.OnboardingFields, cfg.SystemPrompt, engines, logger)
	if err != nil {
		logger.Fatal("could not start onboarding session", zap.Error(err))
	}

	if err := ctrl.Run(ctx); err != nil {
		logger.Fatal("session aborted", zap.Error(err))
	}
}
