// @title                       Kanso Reminder Engine API
// @version                     1.0
// @description                 Medication and appointment reminders with a daily dental-care habit log.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/database"
	adapterHTTP "github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/notify"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/config"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/workers"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/logger"
)

type application struct {
	cfg        *config.Config
	db         *sqlx.DB
	redis      *redis.Client
	router     *gin.Engine
	dispatcher *workers.ReminderDispatcher
}

type repositories struct {
	reminders domain.ReminderRepository
	habits    domain.HabitDayRepository
	users     domain.UserRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg.IsDevelopment(), cfg.SentryDSN)
	defer sentry.Flush(2 * time.Second)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := newApplication(cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DispatchEnabled {
		app.dispatcher.Start(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("kanso reminder engine listening", "addr", srv.Addr, "env", cfg.AppEnv, "db", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("stop signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	app.dispatcher.Stop()

	slog.Info("server stopped gracefully")
}

func newApplication(cfg *config.Config) (*application, error) {
	app := &application{cfg: cfg}

	repos, err := app.openStorage()
	if err != nil {
		app.Close()
		return nil, err
	}

	if cfg.RedisEnabled() {
		rdb, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// Redis only backs caching, locking and rate limiting.
			slog.Warn("redis unavailable, continuing without it", "error", err)
		} else {
			app.redis = rdb
			repos.habits = repository.NewCachedHabitDayRepository(repos.habits, rdb)
		}
	}

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry, repos.users)
	reminderService := services.NewReminderService(repos.reminders)
	agendaService := services.NewAgendaService(repos.reminders)
	habitService := services.NewHabitService(repos.habits)
	authService := services.NewAuthService(repos.users)

	clock := adapterHTTP.SystemClock(cfg.Location)

	app.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:     adapterHTTP.NewAuthHandler(authService, tokenService),
		ReminderHandler: adapterHTTP.NewReminderHandler(reminderService, agendaService, clock),
		HabitHandler:    adapterHTTP.NewHabitHandler(habitService, clock),
		TokenService:    tokenService,
		DB:              app.db,
		Redis:           app.redis,
		StartTime:       time.Now(),
		RateLimit:       cfg.RateLimit,
		RateLimitWindow: cfg.RateLimitWindow,
	})

	var notifier domain.Notifier = notify.LogNotifier{}
	if cfg.ResendAPIKey != "" {
		notifier = notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.EmailFrom, cfg.AppName)
	}

	var locker workers.Locker
	if app.redis != nil {
		locker = cache.NewLocker(app.redis, uuid.NewString())
	}

	app.dispatcher = workers.NewReminderDispatcher(repos.reminders, repos.users, notifier, locker, workers.DispatcherConfig{
		Interval: cfg.DispatchInterval,
		Hour:     cfg.DispatchHour,
		Location: cfg.Location,
	})

	return app, nil
}

func (a *application) openStorage() (*repositories, error) {
	if a.cfg.DBDriver == database.DriverMemory {
		slog.Warn("using in-memory storage, data is lost on restart")
		return &repositories{
			reminders: repository.NewInMemoryReminderRepository(),
			habits:    repository.NewInMemoryHabitDayRepository(),
			users:     repository.NewInMemoryUserRepository(),
		}, nil
	}

	db, err := database.Open(a.cfg.DBDriver, a.cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.db = db

	if err := database.Migrate(db, a.cfg.DBDriver); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &repositories{
		reminders: repository.NewSQLReminderRepository(db),
		habits:    repository.NewSQLHabitDayRepository(db),
		users:     repository.NewSQLUserRepository(db),
	}, nil
}

func (a *application) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
