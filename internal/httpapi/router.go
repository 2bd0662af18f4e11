package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/vibemindai/assistant/internal/config"
	"github.com/vibemindai/assistant/internal/httpapi/handlers"
	"github.com/vibemindai/assistant/internal/httpapi/middleware"
	"github.com/vibemindai/assistant/internal/metrics"
)

func NewRouter(cfg config.Config, store handlers.ConversationReader, svc handlers.Generator, m *metrics.Collector) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(m))
	r.Use(middleware.CORS(cfg.CORSAllowOrigins))

	r.NoRoute(handlers.NotFound)
	r.NoMethod(handlers.MethodNotAllowed)

	h := handlers.NewHandler(cfg, store, svc)

	r.GET("/", h.Root)
	r.GET("/healthz", h.Health)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")
	api.POST("/generate", h.Generate)
	api.GET("/conversations/:session_id", h.ListConversations)
	api.GET("/conversations/:session_id/stats", h.SessionStats)
	return r
}
