// Package httpserver exposes the service's HTTP surface: the inbound chat
// event endpoint plus health and metrics routes.
package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"docbot/internal/config"
	"docbot/internal/interfaces/chat"
)

// Enqueuer accepts inbound chat events for asynchronous processing.
type Enqueuer interface {
	Enqueue(ev chat.Event) error
}

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg    *config.Config
	engine *gin.Engine
	log    zerolog.Logger
}

// New constructs the HTTP server with default middleware and routes.
func New(cfg *config.Config, pool Enqueuer, log zerolog.Logger) *HttpServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), gin.Logger())

	registerRoutes(engine, cfg, pool, log.With().Str("component", "httpserver").Logger())

	return &HttpServer{
		cfg:    cfg,
		engine: engine,
		log:    log,
	}
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registerRoutes(engine *gin.Engine, cfg *config.Config, pool Enqueuer, log zerolog.Logger) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": cfg.ServiceName, "status": "ok"})
	})
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	v1.POST("/chat/events", handleChatEvent(pool, log))
}

// handleChatEvent accepts one inbound chat event and queues it. The 202
// response tells the connector the event is owned; answers arrive later
// through the outbound gateway.
func handleChatEvent(pool Enqueuer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ev chat.Event
		if err := c.ShouldBindJSON(&ev); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat event: " + err.Error()})
			return
		}

		if err := pool.Enqueue(ev); err != nil {
			log.Warn().Err(err).Str("channel", ev.Channel).Msg("chat event rejected")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event queue full, retry later"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	}
}
