package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kapu/video-insight-analyzer/internal/config"
	"github.com/kapu/video-insight-analyzer/internal/constants"
	"github.com/kapu/video-insight-analyzer/internal/domain"
	"github.com/kapu/video-insight-analyzer/internal/prompt"
	"github.com/kapu/video-insight-analyzer/internal/util"
	apperrors "github.com/kapu/video-insight-analyzer/pkg/errors"
	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var (
	statusRegex     = regexp.MustCompile(`\b(5\d{2})\b`)
	geminiCodeRegex = regexp.MustCompile(`"code":(\d{3})`)
	openaiCodeRegex = regexp.MustCompile(`^(\d{3})\s`)
)

// ModelManager is the analysis client handle: it owns one provider, decodes
// its JSON answer and classifies its failures.
type ModelManager struct {
	provider AudioProvider
	logger   *zap.Logger
}

type ModelManagerConfig struct {
	Provider           string
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIModel        string
	TranscriptionModel string
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	prompts := prompt.DefaultPromptBuilder()

	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, apperrors.NewConfigError("OPENAI_API_KEY is required", "OPENAI_API_KEY")
		}
		model := cfg.OpenAIModel
		if model == "" {
			model = "gpt-4.1-mini"
		}
		transcription := cfg.TranscriptionModel
		if transcription == "" {
			transcription = "whisper-1"
		}
		provider := NewOpenAIProvider(cfg.OpenAIAPIKey, model, transcription, prompts, logger)
		logger.Info("OpenAI analyzer ready",
			zap.String("model", model),
			zap.String("transcription_model", transcription),
		)
		return NewModelManagerWithProvider(provider, logger), nil

	default:
		if cfg.GeminiAPIKey == "" {
			return nil, apperrors.NewConfigError("GEMINI_API_KEY is required", "GEMINI_API_KEY")
		}
		geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		model := cfg.GeminiModel
		if model == "" {
			model = "gemini-2.5-flash"
		}
		logger.Info("Gemini analyzer ready", zap.String("model", model))
		return NewModelManagerWithProvider(NewGeminiProvider(geminiClient, model, prompts, logger), logger), nil
	}
}

func NewModelManagerWithProvider(provider AudioProvider, logger *zap.Logger) *ModelManager {
	return &ModelManager{
		provider: provider,
		logger:   logger,
	}
}

func (mm *ModelManager) ProviderName() string {
	if mm.provider == nil {
		return ""
	}
	return mm.provider.Name()
}

// Analyze transcribes and scores one audio track. Failures come back as
// *errors.APIError or *errors.ProcessingError whenever they can be classified.
func (mm *ModelManager) Analyze(ctx context.Context, audio *domain.AudioSource) (*Analysis, *GenerateMetadata, error) {
	if mm.provider == nil {
		return nil, nil, fmt.Errorf("model provider is not configured")
	}

	result, err := mm.provider.Generate(ctx, audio, &GenerateOptions{JSONMode: true})
	if err != nil {
		return nil, nil, mm.classify(err)
	}

	metadata := &GenerateMetadata{
		Provider: mm.provider.Name(),
		Model:    result.Model,
	}

	var analysis Analysis
	if err := mm.decodeJSON(result.Text, metadata, &analysis); err != nil {
		return nil, metadata, err
	}
	if result.Transcript != "" {
		analysis.Transcript = result.Transcript
	}

	if limit := constants.AIInputLimits.MaxTranscriptChars; utf8.RuneCountInString(analysis.Transcript) > limit {
		mm.logger.Warn("Transcript truncated",
			zap.String("provider", metadata.Provider),
			zap.Int("limit", limit),
			zap.Int("chars", utf8.RuneCountInString(analysis.Transcript)),
		)
		analysis.Transcript = util.TruncateString(analysis.Transcript, limit)
	}

	return &analysis, metadata, nil
}

func (mm *ModelManager) decodeJSON(text string, metadata *GenerateMetadata, dest any) error {
	cleaned := util.StripCodeFence(text)
	if cleaned == "" {
		return apperrors.NewProcessingError(fmt.Sprintf("%s API returned empty response", metadata.Provider), "decode", nil)
	}

	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		mm.logger.Error("Failed to unmarshal JSON response",
			zap.String("provider", metadata.Provider),
			zap.Error(err),
			zap.String("response_preview", util.TruncateString(cleaned, constants.AIInputLimits.MaxResponsePreview)),
		)
		return apperrors.NewProcessingError(fmt.Sprintf("invalid JSON from %s", metadata.Provider), "decode", err)
	}

	return nil
}

func (mm *ModelManager) classify(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAPIError(err) || apperrors.IsProcessingError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	provider := mm.ProviderName()

	if remote, ok := asRemoteFailure(err); ok {
		switch {
		case remote.isAuthFailure():
			return apperrors.NewAPIError(fmt.Sprintf("%s API rejected the credentials", provider), provider, remote.code, err)
		case remote.code == 413 || remote.code == 415,
			remote.code == 400 && remote.isMediaRejection():
			return apperrors.NewProcessingError(fmt.Sprintf("%s rejected the audio", provider), "analysis", err)
		default:
			return apperrors.NewAPIError(fmt.Sprintf("%s API request failed", provider), provider, remote.code, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || isNetworkError(err) || isServiceFailure(err) {
		return apperrors.NewAPIError(fmt.Sprintf("could not reach %s API", provider), provider, 503, err)
	}

	return err
}

// remoteFailure is an HTTP error answered by a provider SDK. text joins the
// message, status and reason fields in lower case.
type remoteFailure struct {
	code int
	text string
}

func asRemoteFailure(err error) (remoteFailure, bool) {
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiFailure(geminiErr), true
	}
	var geminiPtrErr *genai.APIError
	if errors.As(err, &geminiPtrErr) && geminiPtrErr != nil {
		return geminiFailure(*geminiPtrErr), true
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) && openaiErr != nil {
		return remoteFailure{
			code: openaiErr.StatusCode,
			text: strings.ToLower(strings.Join([]string{openaiErr.Message, openaiErr.Code, openaiErr.Type}, " ")),
		}, true
	}
	return remoteFailure{}, false
}

func geminiFailure(e genai.APIError) remoteFailure {
	parts := []string{e.Message, e.Status}
	for _, detail := range e.Details {
		if reason, ok := detail["reason"].(string); ok {
			parts = append(parts, reason)
		}
	}
	return remoteFailure{code: e.Code, text: strings.ToLower(strings.Join(parts, " "))}
}

var (
	authMarkers  = []string{"api key", "api_key", "unauthenticated", "permission_denied", "permission denied", "incorrect api key"}
	mediaMarkers = []string{"audio", "media", "mime", "file", "unsupported", "payload", "too large", "inline", "format", "decode"}
)

// Gemini reports an invalid key as 400 INVALID_ARGUMENT, so the code alone
// cannot tell auth failures from bad input.
func (r remoteFailure) isAuthFailure() bool {
	if r.code == 401 || r.code == 403 {
		return true
	}
	return containsAny(r.text, authMarkers)
}

func (r remoteFailure) isMediaRejection() bool {
	return containsAny(r.text, mediaMarkers)
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") || strings.Contains(msg, "connection refused") {
		return true
	}

	if isRateLimitError(err) {
		return true
	}

	if statusRegex.MatchString(msg) {
		return true
	}

	if matches := geminiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code >= 500 && code < 600
		}
	}

	if matches := openaiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code >= 500 && code < 600
		}
	}

	return false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}

	if matches := geminiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code == 429
		}
	}

	return false
}
