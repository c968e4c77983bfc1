package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch/cmd"
	"dispatch/internal/adapters/out/postgres/driverrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/adapters/out/postgres/outboxrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck //stderr sync failure is not actionable

	if err := godotenv.Load(".env"); err != nil {
		logger.Warn("no .env file loaded, using process environment", zap.Error(err))
	}

	config := cmd.ConfigFromEnv()

	if err := run(config, logger); err != nil {
		logger.Fatal("service terminated", zap.Error(err))
	}
}

func run(config cmd.Config, logger *zap.Logger) error {
	gormDB, err := openDatabase(config)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := migrate(gormDB); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	root, err := cmd.NewCompositionRoot(config, gormDB, logger)
	if err != nil {
		return fmt.Errorf("composition root: %w", err)
	}
	defer root.Close() //nolint:errcheck //shutdown path

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.Jobs().StartAll(); err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}
	defer root.Jobs().StopAll()

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- root.Consumer().Run(ctx)
	}()

	e := echo.New()
	e.HideBanner = true
	// zap is the service logger; silence echo's own.
	e.Logger.SetLevel(log.OFF)
	e.Use(middleware.Recover())
	root.Server().RegisterRoutes(e)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- e.Start("0.0.0.0:" + config.HTTPPort)
	}()

	logger.Info("dispatch service started", zap.String("port", config.HTTPPort))

	consumerStopped := false

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverDone:
		return fmt.Errorf("http server: %w", err)
	case err := <-consumerDone:
		consumerStopped = true
		if err != nil {
			return fmt.Errorf("lifecycle consumer: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	stop()

	if !consumerStopped {
		if err := <-consumerDone; err != nil {
			logger.Error("lifecycle consumer stopped with error", zap.Error(err))
		}
	}

	logger.Info("dispatch service stopped")
	return nil
}

func openDatabase(config cmd.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.DBHost, config.DBPort, config.DBUser,
		config.DBPassword, config.DBName, config.DBSslMode,
	)

	return gorm.Open(postgresdriver.Open(dsn), &gorm.Config{})
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.StatusLogDTO{},
		&driverrepo.DriverDTO{},
		&driverrepo.VehicleDTO{},
		&driverrepo.StatusLogDTO{},
		&outboxrepo.OutboxDTO{},
	)
}
