package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(app *AppContext, logger *zap.Logger) (*gin.Engine, error) {
	tmpl, err := Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.SetHTMLTemplate(tmpl)

	analyze := NewAnalyzeHandler(app, logger)
	stream := NewStreamHandler(app, tmpl, logger)

	r.GET("/", analyze.Index)
	r.POST("/analyze", analyze.Analyze)
	r.GET("/ws/analyze", stream.Serve)
	r.GET("/healthz", analyze.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
