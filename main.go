package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio/src/api"
	"portfolio/src/api/handlers"
	"portfolio/src/config"
	"portfolio/src/database"
	"portfolio/src/repositories"
	"portfolio/src/services"
	"portfolio/src/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		log.Println(err, "Error while loading config")
		return
	}
	logger := utils.NewLoggerFromLevel(cfg.Logging.Level, cfg.Logging.ToFile, cfg.Logging.FilePath)

	errC, err := run(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Couldn't run")
		return
	}

	if err := <-errC; err != nil {
		logger.WithError(err).Error("Error while running")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) (<-chan error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := database.ResolveConnectionString(ctx, cfg); err != nil {
		return nil, err
	}
	if cfg.Session.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Session.Secret = secret
		logger.Warn("SESSION_SECRET is not set, sessions will not survive a restart")
	}

	gormDB, err := database.SetupGorm(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, sqlDB, logger); err != nil {
		return nil, err
	}

	pool, err := database.SetupDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	credentialService := services.NewCredentialService(repositories.NewUserRepository(gormDB))
	handler, err := handlers.NewHandler(
		credentialService,
		services.NewReportService(),
		repositories.NewPortfolioRepositoryFactory(pool),
		logger,
		cfg,
	)
	if err != nil {
		pool.Close()
		return nil, err
	}
	httpServer := api.NewHTTPServer(api.NewServer(handler), cfg.Service.Port)

	errC := make(chan error, 1)

	go func() {
		logger.WithField("port", cfg.Service.Port).Info("Starting server")

		// "ListenAndServe always returns a non-nil error. After Shutdown or Close, the returned error is
		// ErrServerClosed."
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	go shutdownOnSignal(httpServer, pool, sqlDB.Close, logger, errC)

	return errC, nil
}

func shutdownOnSignal(httpServer *http.Server, pool *pgxpool.Pool, closeSQL func() error, logger *logrus.Logger, errC chan<- error) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals

	logger.Info("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := httpServer.Shutdown(ctx)
	pool.Close()
	if closeErr := closeSQL(); err == nil {
		err = closeErr
	}
	errC <- err
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
