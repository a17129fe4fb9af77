package handler

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kapu/video-insight-analyzer/internal/constants"
	"github.com/kapu/video-insight-analyzer/internal/domain"
	"github.com/kapu/video-insight-analyzer/internal/metrics"
	"github.com/kapu/video-insight-analyzer/internal/util"
	"go.uber.org/zap"
)

const (
	EventStatus = "status"
	EventResult = "result"
)

type StreamRequest struct {
	VideoURL string `json:"video_url"`
}

type StreamEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Status  int    `json:"status,omitempty"`
	HTML    string `json:"html"`
}

// StreamHandler serves the same analysis as AnalyzeHandler over a websocket,
// pushing each status line as it happens.
type StreamHandler struct {
	app      *AppContext
	tmpl     *template.Template
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewStreamHandler(app *AppContext, tmpl *template.Template, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		app:    app,
		tmpl:   tmpl,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *StreamHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(constants.WebSocketConfig.MaxMessageSize)

	for {
		var req StreamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, websocket.ErrCloseSent) {
				h.logger.Debug("WebSocket read ended", zap.Error(err))
			}
			return
		}

		if err := h.handle(c, conn, req.VideoURL); err != nil {
			h.logger.Warn("WebSocket write failed", zap.Error(err))
			return
		}
	}
}

// handle answers one request. Writes happen on this goroutine only because
// the pipeline reports status synchronously.
func (h *StreamHandler) handle(c *gin.Context, conn *websocket.Conn, videoURL string) error {
	if !h.app.ClientReady {
		rejectRequest(h.logger, metrics.RejectClientNotReady, videoURL)
		return h.sendResult(conn, http.StatusServiceUnavailable, nil)
	}

	if videoURL == "" {
		return h.sendResult(conn, http.StatusOK, nil)
	}

	if !util.HasURLScheme(videoURL, constants.URLSchemes...) {
		rejectRequest(h.logger, metrics.RejectInvalidURL, videoURL)
		return h.sendResult(conn, http.StatusBadRequest, invalidURLView())
	}

	var (
		lines    []string
		writeErr error
	)
	outcome := h.app.Runner.Run(c.Request.Context(), videoURL, h.app.Client, func(update domain.StatusUpdate) {
		lines = append(lines, update.Message)
		if writeErr != nil {
			return
		}
		writeErr = h.write(conn, StreamEvent{Type: EventStatus, Message: update.Message})
	})
	if writeErr != nil {
		return writeErr
	}

	view, status := buildResults(outcome, h.app.Provider, lines)
	return h.sendResult(conn, status, view)
}

func (h *StreamHandler) sendResult(conn *websocket.Conn, status int, view *ResultsView) error {
	html, err := renderResults(h.tmpl, view)
	if err != nil {
		h.logger.Error("Failed to render results fragment", zap.Error(err))
		return h.write(conn, StreamEvent{Type: EventResult, Status: http.StatusInternalServerError})
	}
	return h.write(conn, StreamEvent{Type: EventResult, Status: status, HTML: html})
}

func (h *StreamHandler) write(conn *websocket.Conn, event StreamEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(constants.WebSocketConfig.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}
