package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/harshal20m/storeratings/internal/auth"
	"github.com/harshal20m/storeratings/internal/config"
	"github.com/harshal20m/storeratings/internal/repository/memory"
	"github.com/harshal20m/storeratings/internal/repository/postgres"
	"github.com/harshal20m/storeratings/internal/server"
	"github.com/harshal20m/storeratings/internal/tracing"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	repo, err := newRepository(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize repository: %w", err)
	}
	defer repo.Close()

	tp, err := tracing.NewTracerProvider(&cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	jwtManager, err := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.ExpiresIn.Std(), cfg.JWT.Issuer)
	if err != nil {
		return fmt.Errorf("initialize jwt manager: %w", err)
	}

	srv, err := server.New(cfg, logger, repo, jwtManager)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func newRepository(cfg *config.Config, logger *zap.Logger) (ratings.Repository, error) {
	switch cfg.Database.Type {
	case "postgres":
		repo, err := postgres.NewRepository(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(); err != nil {
			repo.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("connected to postgres")
		return repo, nil
	case "memory":
		logger.Warn("using in-memory repository, data will not survive restarts")
		return memory.NewRepository(), nil
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.Database.Type)
	}
}

func newLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
