package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kapu/video-insight-analyzer/internal/constants"
	"github.com/kapu/video-insight-analyzer/internal/domain"
	"github.com/kapu/video-insight-analyzer/internal/metrics"
	"github.com/kapu/video-insight-analyzer/internal/util"
	"go.uber.org/zap"
)

type AnalyzeHandler struct {
	app    *AppContext
	logger *zap.Logger
}

func NewAnalyzeHandler(app *AppContext, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{app: app, logger: logger}
}

func (h *AnalyzeHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, pageTemplate, newPageData(h.app, ""))
}

// Analyze runs the pipeline for the submitted form and renders the full page.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	videoURL := c.PostForm("video_url")
	page := newPageData(h.app, videoURL)

	if !h.app.ClientReady {
		rejectRequest(h.logger, metrics.RejectClientNotReady, videoURL)
		c.HTML(http.StatusServiceUnavailable, pageTemplate, page)
		return
	}

	if videoURL == "" {
		c.HTML(http.StatusOK, pageTemplate, page)
		return
	}

	if !util.HasURLScheme(videoURL, constants.URLSchemes...) {
		rejectRequest(h.logger, metrics.RejectInvalidURL, videoURL)
		page.Results = invalidURLView()
		c.HTML(http.StatusBadRequest, pageTemplate, page)
		return
	}

	var lines []string
	outcome := h.app.Runner.Run(c.Request.Context(), videoURL, h.app.Client, func(update domain.StatusUpdate) {
		lines = append(lines, update.Message)
	})

	view, status := buildResults(outcome, h.app.Provider, lines)
	page.Results = view
	c.HTML(status, pageTemplate, page)
}

func rejectRequest(logger *zap.Logger, reason, videoURL string) {
	metrics.Rejections.WithLabelValues(reason).Inc()
	logger.Info("Analysis request rejected",
		zap.String("reason", reason),
		zap.String("url", util.TruncateString(videoURL, 200)),
	)
}

type HealthResponse struct {
	Status      string `json:"status"`
	ClientReady bool   `json:"client_ready"`
	Provider    string `json:"provider"`
}

func (h *AnalyzeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		ClientReady: h.app.ClientReady,
		Provider:    h.app.Provider,
	})
}
