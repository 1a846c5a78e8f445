package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"sportmeet/config"
	"sportmeet/internal/adapters/auth"
	"sportmeet/internal/adapters/storage"
	delivery "sportmeet/internal/delivery/http"
	"sportmeet/internal/delivery/http/controllers"
	"sportmeet/internal/delivery/http/middleware"
	"sportmeet/internal/repository/postgres"
	"sportmeet/internal/services"
)

// @title           SportMeet API
// @version         1.0
// @description     Sports meetup backend: events, participations, and lifecycle scheduling.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Type "Bearer" followed by a space and the JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "error", err)
		os.Exit(1)
	}
	if err := postgres.RunMigrations(cfg.DBUrl, "migrations"); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	participantRepo := postgres.NewParticipantRepository(db)
	userRepo := postgres.NewUserRepository(db)

	fileStore, err := storage.NewImageStore(cfg.ImageDir)
	if err != nil {
		logger.Error("init image store", "error", err)
		os.Exit(1)
	}

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	ageChecker := services.NewAgeChecker(userRepo)
	participation := services.NewParticipationService(eventRepo, participantRepo, ageChecker, fileStore, logger)
	scheduler := services.NewLifecycleScheduler(eventRepo, participation.(services.LifecycleActions), services.NewRealClock(), cfg.Retention(), logger)
	eventService := services.NewEventService(eventRepo, participantRepo, participation, scheduler, fileStore, 10*time.Second)
	userService := services.NewUserService(userRepo, hasher, issuer, cfg.TokenExpiry)

	// Rebuild lifecycle timers from storage. Overdue cleanups and purges
	// fire immediately, so downtime never leaves expired events behind.
	if err := scheduler.ScheduleAllEvents(context.Background()); err != nil {
		logger.Error("schedule events at startup", "error", err)
		os.Exit(1)
	}

	authController := controllers.NewAuthController(logger, userService)
	eventController := controllers.NewEventController(logger, eventService, fileStore)
	participationController := controllers.NewParticipationController(logger, participation)

	mux := delivery.NewRouter(logger, verifier, authController, eventController, participationController)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.AllowedOrigins, mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
