package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"github.com/dot-css/Palm-Pay-App/internal/config"
	"github.com/dot-css/Palm-Pay-App/internal/events"
	"github.com/dot-css/Palm-Pay-App/internal/handler"
	"github.com/dot-css/Palm-Pay-App/internal/repository"
	"github.com/dot-css/Palm-Pay-App/internal/service"
	"github.com/dot-css/Palm-Pay-App/pkg/metrics"
)

func main() {
	// Initialise logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()

	// Connect to the database
	db, err := connectDB(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database successfully")

	collector := metrics.NewCollector()
	dispatcher := events.NewDispatcher()

	// Initialise repositories
	store := repository.NewStore(db)
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)

	// Initialise services
	mailer := &service.LogMailer{Logger: logger}
	authService := service.NewAuthService(accountRepo, sessionRepo, resetRepo, mailer,
		cfg.SessionTTL, cfg.ResetTokenTTL, cfg.BcryptCost, logger)
	accountService := service.NewAccountService(accountRepo, transactionRepo, logger)
	lookupService := service.NewLookupService(accountRepo, logger)
	transferService := service.NewTransferService(store, transactionRepo, notificationRepo, dispatcher, collector, logger)
	notificationService := service.NewNotificationService(notificationRepo, logger)

	// Initialise handlers
	authHandler := handler.NewAuthHandler(authService, logger)
	accountHandler := handler.NewAccountHandler(accountService, lookupService, logger)
	transferHandler := handler.NewTransferHandler(transferService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	streamHandler := handler.NewStreamHandler(dispatcher, logger)

	// Setup router
	router := mux.NewRouter()
	router.Use(handler.LoggingMiddleware(logger, collector))

	public := router.PathPrefix("/api").Subrouter()
	authHandler.RegisterRoutes(public)

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(handler.AuthMiddleware(authService, logger))
	accountHandler.RegisterRoutes(protected)
	transferHandler.RegisterRoutes(protected)
	notificationHandler.RegisterRoutes(protected)
	streamHandler.RegisterRoutes(protected)

	// Health check and metrics endpoints
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)

	// Create HTTP server. WriteTimeout is generous because /api/events holds
	// the response open.
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a go routine
	go func() {
		logger.Info("starting server on port " + cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err.Error())
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err.Error())
	}

	logger.Info("server exited gracefully")
}

// connectDB establishes a connection to the Postgres database
func connectDB(cfg config.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
