package handler

import (
	"context"

	"github.com/kapu/video-insight-analyzer/internal/domain"
	"github.com/kapu/video-insight-analyzer/internal/pipeline"
)

// Runner executes one analysis and never returns a bare error.
type Runner interface {
	Run(ctx context.Context, videoURL string, client pipeline.Analyzer, report domain.StatusReporter) domain.Outcome
}

// AppContext is built once at startup and shared read-only by every request.
// Provider is the display name of the analysis backend, e.g. "Gemini".
type AppContext struct {
	ClientReady bool
	InitError   string
	Provider    string
	APIKeyName  string
	Client      pipeline.Analyzer
	Runner      Runner
}
