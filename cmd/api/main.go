package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/octobees/user-directory/api/internal/auth"
	"github.com/octobees/user-directory/api/internal/client"
	"github.com/octobees/user-directory/api/internal/config"
	"github.com/octobees/user-directory/api/internal/directory"
	"github.com/octobees/user-directory/api/internal/handler"
	"github.com/octobees/user-directory/api/internal/logger"
	"github.com/octobees/user-directory/api/internal/metrics"
	middlewarepkg "github.com/octobees/user-directory/api/internal/middleware"
	"github.com/octobees/user-directory/api/internal/router"
	"github.com/octobees/user-directory/api/internal/service"
	"github.com/octobees/user-directory/api/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logg.Sync()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	jwtManager := auth.NewJWTManager(cfg.SessionSecret, cfg.SessionTTL)
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}
	usersClient := client.NewUsersClient(httpClient, cfg.UsersEndpoint)

	registry := session.NewRegistry(rootCtx, usersClient, cfg.SessionTTL, logg,
		directory.WithDelay(cfg.LoadDelay),
	)

	limiters := router.Limiters{
		Sessions: middlewarepkg.NewRateLimiter(cfg.RateLimitSessions, middlewarepkg.ClientIPKey, "session rate limit exceeded"),
		Filters:  middlewarepkg.NewRateLimiter(cfg.RateLimitFilters, middlewarepkg.SessionKey, "filter rate limit exceeded"),
	}
	registry.OnTeardown(limiters.Filters.Forget)

	directoryHandler := handler.NewDirectoryHandler(registry, jwtManager, service.NewContactFormatter(cfg.PhoneRegion), logg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logg))
	e.Use(metrics.Middleware())
	e.Use(echoMiddleware.Recover())

	router.Register(e, jwtManager, router.Handlers{
		Directory: directoryHandler,
	}, limiters)

	serverErr := make(chan error, 1)
	go func() {
		logg.Info("starting server", zap.String("port", cfg.Port), zap.String("users_endpoint", cfg.UsersEndpoint))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logg.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server error", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Open event streams end once their sessions are gone.
	registry.Close()
	rootCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
}
