package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"capex-lab/internal/observability"
)

// Load registers every route on g.
func (h *Handler) Load(g *gin.Engine) {
	g.GET("/health", h.Health)
	g.GET("/status", h.Status)
	g.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := g.Group("/api/v1")
	{
		v1.POST("/analysis", h.Analysis)
		v1.POST("/analysis/export", h.Export)
		v1.POST("/simulate", h.Simulate)
		v1.POST("/sweep", h.Sweep)
		v1.GET("/explore", h.Explore)
	}
}

// NewRouter builds a gin engine with recovery, request IDs and access logs.
func NewRouter(h *Handler) *gin.Engine {
	g := gin.New()
	g.Use(gin.Recovery(), RequestID(), AccessLog(h.logger))
	h.Load(g)
	return g
}

// RequestID tags each request with an X-Request-Id, reusing the caller's.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// AccessLog logs one line per request and counts it by route and status.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := strconv.Itoa(c.Writer.Status())
		observability.RecordHTTPRequest(route, code)
		logger.Info("request",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("code", code),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", time.Since(start)),
		)
	}
}
