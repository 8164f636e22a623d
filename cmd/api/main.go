package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/invest-service/internal/config"
	"github.com/Dan9191/invest-service/internal/handler"
	"github.com/Dan9191/invest-service/internal/integrations/bcb"
	"github.com/Dan9191/invest-service/internal/repository"
	"github.com/Dan9191/invest-service/internal/scheduler"
	"github.com/Dan9191/invest-service/internal/service"
	"github.com/Dan9191/invest-service/internal/storage"
	"github.com/Dan9191/invest-service/internal/utils/email"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize storage
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	// Initialize layers
	mailer := email.NewSender(cfg, logger)
	if !mailer.Enabled() {
		logger.Warn("SMTP_HOST not set, email notifications disabled")
	}
	svc := service.NewService(store, logger, cfg, service.WithNotifier(mailer))
	bcbClient := bcb.NewClient(cfg, logger)
	h := handler.NewHandler(svc, bcbClient, logger)
	r := handler.NewRouter(h, cfg)

	// Schedule daily earnings
	sched, err := scheduler.New(cfg.EarningsSchedule, svc, logger)
	if err != nil {
		logger.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	sched.Stop(ctx)
}

// openStore connects to Postgres and applies migrations, or returns the
// in-memory store when DB_CONN is "memory"
func openStore(cfg *config.Config, logger *logrus.Logger) (storage.Store, func(), error) {
	if cfg.DBConn == config.MemoryDB {
		logger.Warn("Using in-memory storage, data will not survive a restart")
		return storage.NewMemory(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repository.NewRepository(db), func() { db.Close() }, nil
}
