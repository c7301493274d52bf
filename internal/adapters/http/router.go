package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotesync/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds API requests. A sync waits on the remote
// source, so it must exceed the client timeout.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains the handlers and options for SetupRouter.
type RouterConfig struct {
	// ServiceName labels spans and metrics.
	ServiceName string

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler

	// Timeout bounds /api/v1 requests. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures middleware and routes on the engine.
// Middleware order (first to last):
//  1. Recovery
//  2. Request ID
//  3. Correlation ID
//  4. OpenTelemetry tracing and request metrics
//  5. Logging (skips /-/ probes)
//
// Route groups:
//   - /-/ operational endpoints, no timeout
//   - /api/v1/ quote API with request timeout
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.HandleMethodNotAllowed = true

	engine.Use(middleware.Recovery(), middleware.RequestID(), middleware.CorrelationID())
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(middleware.Logging())

	engine.NoRoute(func(c *gin.Context) {
		dto.Abort(c, dto.ErrorCodeRouteNotFound, "route not found")
	})
	engine.NoMethod(func(c *gin.Context) {
		dto.Abort(c, dto.ErrorCodeMethodNotAllowed, "method not allowed")
	})

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutes(engine.Group("/-"))
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout))
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(apiV1)
	}
}
