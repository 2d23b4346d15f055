package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/unalone/chat-service/internal/config"
	"github.com/unalone/chat-service/internal/core"
)

// NewServer builds the HTTP server: health check, the WebSocket event
// surface, and the read-only history REST endpoints. The WebSocket endpoint
// hangs off a plain mux in front of gin: the upgrade hijacks the connection,
// which gin's wrapped response writer refuses.
func NewServer(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	history := NewHistoryHandlers(hub.Pipeline(), logger)
	api := router.Group("/api/chat")
	{
		api.GET("/global/history", history.GlobalHistory)
		api.GET("/meetup/:meetupId/history", history.MeetupHistory)
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
