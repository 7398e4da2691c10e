package handler

import (
	"net/http"

	"github.com/CageChen/dirscope/internal/logging"
	"github.com/CageChen/dirscope/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the API handlers the router serves.
type Handlers struct {
	Sessions *SessionHandler
	Index    *IndexHandler
	WS       *WSHandler
}

// NewRouter builds the Gin engine. static, if non-nil, serves the web UI
// for unmatched routes.
func NewRouter(log *zap.Logger, h Handlers, static http.FileSystem) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinLogger(log))
	r.Use(metrics.Middleware())
	r.Use(corsMiddleware())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		// Explorer sessions
		api.POST("/sessions", h.Sessions.CreateSession)
		api.GET("/sessions/:id", h.Sessions.GetSession)
		api.DELETE("/sessions/:id", h.Sessions.CloseSession)
		api.PUT("/sessions/:id/path", h.Sessions.SetPath)
		api.POST("/sessions/:id/open", h.Sessions.Open)
		api.POST("/sessions/:id/parent", h.Sessions.Parent)
		api.POST("/sessions/:id/refresh", h.Sessions.Refresh)

		// Indexing
		api.GET("/index", h.Index.GetIndex)
		api.POST("/export", h.Index.Export)

		if h.WS != nil {
			api.GET("/ws", h.WS.HandleWS)
		}
	}

	if static != nil {
		r.NoRoute(gin.WrapH(http.FileServer(static)))
	}
	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
