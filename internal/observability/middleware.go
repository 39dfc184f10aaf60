package observability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Debug()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", routePath(c)).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func RequestMetricsMiddleware(node string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(node, c.Request.Method, routePath(c), c.Writer.Status(), time.Since(start))
	}
}

func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// HealthFunc reports feed state for /health.
type HealthFunc func() gin.H

// NewRouter serves /metrics from gatherer and /health from health.
func NewRouter(node string, logger zerolog.Logger, gatherer prometheus.Gatherer, health HealthFunc) *gin.Engine {
	startedAt := time.Now()
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger), RequestMetricsMiddleware(node))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status": "ok",
			"node":   node,
			"uptime": time.Since(startedAt).String(),
		}
		if health != nil {
			for k, v := range health() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})
	return r
}
