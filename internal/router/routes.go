package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/octobees/user-directory/api/internal/auth"
	"github.com/octobees/user-directory/api/internal/handler"
	middlewarepkg "github.com/octobees/user-directory/api/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Directory *handler.DirectoryHandler
}

// Limiters holds the token buckets applied to the routes. Nil limiters let every request through.
type Limiters struct {
	// Sessions guards POST /sessions, keyed by client IP.
	Sessions *middlewarepkg.RateLimiter
	// Filters guards the filter mutations; keyed by session.
	Filters *middlewarepkg.RateLimiter
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, jwtManager *auth.JWTManager, handlers Handlers, limiters Limiters) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/sessions", handlers.Directory.Mount, limiters.Sessions.Middleware())

	secured := e.Group("")
	secured.Use(middlewarepkg.SessionToken(jwtManager))

	secured.DELETE("/sessions/current", handlers.Directory.Unmount)

	dir := secured.Group("/directory")
	dir.GET("", handlers.Directory.Snapshot)
	dir.GET("/events", handlers.Directory.Events)
	dir.GET("/export", handlers.Directory.Export)

	limiter := limiters.Filters.Middleware()
	dir.PATCH("/filters", handlers.Directory.UpdateFilters, limiter)
	dir.DELETE("/filters", handlers.Directory.ClearFilters, limiter)
}
