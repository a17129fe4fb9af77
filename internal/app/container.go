package app

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"

	"github.com/gin-gonic/gin"
	"github.com/kapu/video-insight-analyzer/internal/config"
	"github.com/kapu/video-insight-analyzer/internal/constants"
	"github.com/kapu/video-insight-analyzer/internal/handler"
	"github.com/kapu/video-insight-analyzer/internal/pipeline"
	"github.com/kapu/video-insight-analyzer/internal/service/ai"
	"github.com/kapu/video-insight-analyzer/internal/service/media"
	"github.com/kapu/video-insight-analyzer/internal/service/youtube"
	"go.uber.org/zap"
)

// Container bundles the assembled services behind the HTTP server.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	AppContext *handler.AppContext
	Router     *gin.Engine
}

// NewServer returns an http.Server bound to the configured address.
func (c *Container) NewServer() (*http.Server, error) {
	if c == nil || c.Router == nil {
		return nil, fmt.Errorf("router not initialized")
	}
	return &http.Server{
		Addr:              c.Config.ListenAddr(),
		Handler:           c.Router,
		ReadHeaderTimeout: constants.ServerConfig.ReadHeaderTimeout,
	}, nil
}

// Build assembles every service once at startup. A missing or broken API key
// does not fail the build: it is recorded on the AppContext so the page can
// report it.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	gin.SetMode(cfg.Server.GinMode)

	clients := ai.NewClientProvider(ai.ModelManagerConfig{
		Provider:           cfg.Analyzer.Provider,
		GeminiAPIKey:       cfg.Gemini.APIKey,
		GeminiModel:        cfg.Gemini.Model,
		OpenAIAPIKey:       cfg.OpenAI.APIKey,
		OpenAIModel:        cfg.OpenAI.Model,
		TranscriptionModel: cfg.OpenAI.TranscriptionModel,
	}, logger)

	appCtx := newAppContext(ctx, cfg, clients, logger)

	checkYtDlp(cfg.Media.YtDlpPath, logger)
	downloader := media.NewYtDlpDownloader(cfg.Media.YtDlpPath, cfg.Media.AudioFormat, cfg.Media.MaxFileSize, logger)
	extractor := media.NewExtractor(downloader, cfg.Media.TempDir, cfg.Media.AudioFormat, logger)

	var details pipeline.DetailsLookup
	if cfg.YouTube.APIKey != "" {
		ytSvc, err := youtube.NewYouTubeService(ctx, cfg.YouTube.APIKey, logger)
		if err != nil {
			logger.Warn("YouTube details disabled", zap.Error(err))
		} else {
			details = ytSvc
		}
	}

	appCtx.Runner = pipeline.New(extractor, details, logger)

	router, err := handler.NewRouter(appCtx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	return &Container{
		Config:     cfg,
		Logger:     logger,
		AppContext: appCtx,
		Router:     router,
	}, nil
}

func newAppContext(ctx context.Context, cfg *config.Config, clients *ai.ClientProvider, logger *zap.Logger) *handler.AppContext {
	appCtx := &handler.AppContext{
		Provider:   providerDisplayName(cfg.Analyzer.Provider),
		APIKeyName: cfg.APIKeyName(),
	}

	if !cfg.ClientReady() {
		logger.Warn("Analysis client disabled: API key not set", zap.String("key", cfg.APIKeyName()))
		return appCtx
	}

	client, err := clients.Client(ctx)
	if err != nil {
		appCtx.InitError = err.Error()
		return appCtx
	}

	appCtx.ClientReady = true
	appCtx.Client = client
	appCtx.Provider = client.ProviderName()
	return appCtx
}

func providerDisplayName(provider string) string {
	if provider == config.ProviderOpenAI {
		return "OpenAI"
	}
	return "Gemini"
}

func checkYtDlp(executable string, logger *zap.Logger) {
	if executable == "" {
		executable = "yt-dlp"
	}
	if _, err := exec.LookPath(executable); err != nil {
		logger.Warn("yt-dlp not found; every analysis will fail at the download step",
			zap.String("executable", executable),
			zap.Error(err),
		)
	}
}
