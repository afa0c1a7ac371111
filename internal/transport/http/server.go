package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/config"
)

// NewServer builds the local view server: read-only snapshots of the chat
// state plus the join and submit actions.
func NewServer(chat Chat, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.ViewAddr,
		Handler:           NewRouter(chat, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers the view routes on a fresh gin engine.
func NewRouter(chat Chat, cfg config.Config, logger *zerolog.Logger) *gin.Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	router.GET("/health", healthHandler)

	h := NewViewHandlers(chat, newRateLimiter(cfg.MessagesPerMinute), logger)
	api := router.Group("/api")
	api.GET("/state", h.State)
	api.GET("/roster", h.Roster)
	api.GET("/messages", h.Messages)
	api.POST("/join", h.Join)
	api.POST("/messages", h.Submit)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
