package api

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/printgate/printgate/internal/api/handlers"
	"github.com/printgate/printgate/internal/api/middleware"
	"github.com/printgate/printgate/internal/config"
)

type Handlers struct {
	Print    *handlers.PrintHandler
	Printers *handlers.PrinterHandler
	History  *handlers.HistoryHandler
	Webhooks *handlers.WebhookHandler
}

// NewRouter wires middleware and routes. The print endpoint itself is
// synchronous: one request goroutine carries one job to completion.
func NewRouter(cfg *config.Config, auth *middleware.Auth, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Api-Key")
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/v1/token", auth.TokenHandler)

	v1 := r.Group("/api/v1")
	v1.Use(auth.RequireAuth())

	h.Print.RegisterRoutes(v1)
	h.Printers.RegisterRoutes(v1)
	h.History.RegisterRoutes(v1)
	h.Webhooks.RegisterRoutes(v1)

	return r
}

// NewServer builds the http.Server around the router with the configured
// timeouts. The write timeout bounds slow downstream printers per
// request without blocking the listener.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
