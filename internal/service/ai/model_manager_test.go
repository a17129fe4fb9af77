package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kapu/video-insight-analyzer/internal/config"
	"github.com/kapu/video-insight-analyzer/internal/constants"
	"github.com/kapu/video-insight-analyzer/internal/domain"
	apperrors "github.com/kapu/video-insight-analyzer/pkg/errors"
	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeProvider struct {
	result ProviderResult
	err    error
	calls  int
	opts   *GenerateOptions
}

func (f *fakeProvider) Name() string { return "Gemini" }

func (f *fakeProvider) Generate(_ context.Context, _ *domain.AudioSource, opts *GenerateOptions) (ProviderResult, error) {
	f.calls++
	f.opts = opts
	return f.result, f.err
}

func testAudio() *domain.AudioSource {
	return &domain.AudioSource{Path: "/tmp/audio.mp3", MIMEType: "audio/mpeg", SizeBytes: 1024, URL: "https://example.com/v"}
}

func TestAnalyzeDecodesJSON(t *testing.T) {
	provider := &fakeProvider{result: ProviderResult{
		Text:  "```json\n{\"transcript\":\"Hello world\",\"clarity_score\":87,\"communication_focus\":\"Active Listening\"}\n```",
		Model: "gemini-2.5-flash",
	}}
	mm := NewModelManagerWithProvider(provider, zap.NewNop())

	analysis, metadata, err := mm.Analyze(context.Background(), testAudio())
	require.NoError(t, err)

	assert.Equal(t, "Hello world", analysis.Transcript)
	assert.Equal(t, 87.0, analysis.ClarityScore)
	assert.Equal(t, "Active Listening", analysis.CommunicationFocus)
	assert.Equal(t, "Gemini", metadata.Provider)
	assert.Equal(t, "gemini-2.5-flash", metadata.Model)
	assert.True(t, provider.opts.JSONMode)
}

func TestAnalyzeKeepsOutOfRangeScore(t *testing.T) {
	provider := &fakeProvider{result: ProviderResult{
		Text: `{"transcript":"t","clarity_score":142.5,"communication_focus":"Whatever The Model Said"}`,
	}}
	mm := NewModelManagerWithProvider(provider, zap.NewNop())

	analysis, _, err := mm.Analyze(context.Background(), testAudio())
	require.NoError(t, err)

	assert.Equal(t, 142.5, analysis.ClarityScore)
	assert.Equal(t, "Whatever The Model Said", analysis.CommunicationFocus)
}

func TestAnalyzePrefersSeparateTranscript(t *testing.T) {
	provider := &fakeProvider{result: ProviderResult{
		Text:       `{"transcript":"","clarity_score":70,"communication_focus":"Instruction"}`,
		Transcript: "from whisper",
	}}
	mm := NewModelManagerWithProvider(provider, zap.NewNop())

	analysis, _, err := mm.Analyze(context.Background(), testAudio())
	require.NoError(t, err)

	assert.Equal(t, "from whisper", analysis.Transcript)
}

func TestAnalyzeInvalidJSONIsProcessingError(t *testing.T) {
	for _, text := range []string{"", "not json at all", "```json\n```"} {
		provider := &fakeProvider{result: ProviderResult{Text: text}}
		mm := NewModelManagerWithProvider(provider, zap.NewNop())

		analysis, _, err := mm.Analyze(context.Background(), testAudio())

		assert.Nil(t, analysis)
		assert.True(t, apperrors.IsProcessingError(err), "text %q: %v", text, err)
	}
}

func TestAnalyzeClassifiesProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		api        bool
		processing bool
	}{
		{"deadline", context.DeadlineExceeded, true, false},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true, false},
		{"server status", errors.New("googleapi: Error 503: Service Unavailable"), true, false},
		{"rate limit", errors.New("Rate limit reached for requests"), true, false},
		{"already processing", apperrors.NewProcessingError("empty response from Gemini", "analysis", nil), false, true},
		{"already api", apperrors.NewAPIError("down", "Gemini", 500, nil), true, false},
		{"unknown", errors.New("unexpected end of input"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mm := NewModelManagerWithProvider(&fakeProvider{err: tt.err}, zap.NewNop())

			_, _, err := mm.Analyze(context.Background(), testAudio())
			require.Error(t, err)

			assert.Equal(t, tt.api, apperrors.IsAPIError(err))
			assert.Equal(t, tt.processing, apperrors.IsProcessingError(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAnalyzeCanceledPassesThrough(t *testing.T) {
	mm := NewModelManagerWithProvider(&fakeProvider{err: fmt.Errorf("request: %w", context.Canceled)}, zap.NewNop())

	_, _, err := mm.Analyze(context.Background(), testAudio())

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apperrors.IsAPIError(err))
}

func TestAnalyzeWithoutProvider(t *testing.T) {
	mm := NewModelManagerWithProvider(nil, zap.NewNop())

	_, _, err := mm.Analyze(context.Background(), testAudio())
	assert.Error(t, err)
	assert.Equal(t, "", mm.ProviderName())
}

func TestNewModelManagerRequiresKey(t *testing.T) {
	_, err := NewModelManager(context.Background(), ModelManagerConfig{Provider: config.ProviderGemini}, zap.NewNop())
	var cfgErr *apperrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Key)

	_, err = NewModelManager(context.Background(), ModelManagerConfig{Provider: config.ProviderOpenAI}, zap.NewNop())
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "OPENAI_API_KEY", cfgErr.Key)
}

func TestNewModelManagerOpenAI(t *testing.T) {
	mm, err := NewModelManager(context.Background(), ModelManagerConfig{
		Provider:     config.ProviderOpenAI,
		OpenAIAPIKey: "sk-test",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "OpenAI", mm.ProviderName())
}

func openAIError(status int, message, code string) *openai.Error {
	return &openai.Error{
		StatusCode: status,
		Message:    message,
		Code:       code,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.openai.com/v1/audio/transcriptions", nil),
		Response:   &http.Response{StatusCode: status},
	}
}

func TestAnalyzeClassifiesSDKErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		processing bool
	}{
		{"gemini 400 invalid key", genai.APIError{
			Code:    400,
			Message: "API key not valid. Please pass a valid API key.",
			Status:  "INVALID_ARGUMENT",
			Details: []map[string]any{{"reason": "API_KEY_INVALID"}},
		}, false},
		{"gemini 400 key pointer", &genai.APIError{Code: 400, Message: "API key expired. Please renew the API key.", Status: "INVALID_ARGUMENT"}, false},
		{"gemini 400 media", genai.APIError{Code: 400, Message: "Unsupported MIME type: audio/x-unknown", Status: "INVALID_ARGUMENT"}, true},
		{"gemini 400 other", genai.APIError{Code: 400, Message: "models/gemini-9 is not found", Status: "INVALID_ARGUMENT"}, false},
		{"gemini 401", genai.APIError{Code: 401, Message: "Request had invalid authentication credentials.", Status: "UNAUTHENTICATED"}, false},
		{"gemini 403", &genai.APIError{Code: 403, Message: "Permission denied on resource project.", Status: "PERMISSION_DENIED"}, false},
		{"gemini 413", genai.APIError{Code: 413, Message: "Request payload size exceeds the limit", Status: "INVALID_ARGUMENT"}, true},
		{"gemini 429", genai.APIError{Code: 429, Message: "Resource has been exhausted (e.g. check quota).", Status: "RESOURCE_EXHAUSTED"}, false},
		{"gemini 503", &genai.APIError{Code: 503, Message: "The model is overloaded.", Status: "UNAVAILABLE"}, false},
		{"openai 400 invalid key", openAIError(400, "Incorrect API key provided: sk-test.", "invalid_api_key"), false},
		{"openai 400 media", openAIError(400, "Invalid file format. Supported formats: ['flac', 'mp3', 'webm']", "invalid_value"), true},
		{"openai 401", openAIError(401, "Incorrect API key provided: sk-test.", "invalid_api_key"), false},
		{"openai 403", openAIError(403, "Country, region, or territory not supported", "unsupported_country_region_territory"), false},
		{"openai 429", openAIError(429, "You exceeded your current quota.", "insufficient_quota"), false},
		{"openai 503", openAIError(503, "The engine is currently overloaded.", ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mm := NewModelManagerWithProvider(&fakeProvider{err: tt.err}, zap.NewNop())

			_, _, err := mm.Analyze(context.Background(), testAudio())
			require.Error(t, err)

			assert.Equal(t, !tt.processing, apperrors.IsAPIError(err), "%v", err)
			assert.Equal(t, tt.processing, apperrors.IsProcessingError(err), "%v", err)
		})
	}
}

func TestAnalyzeKeepsRemoteStatusCode(t *testing.T) {
	mm := NewModelManagerWithProvider(&fakeProvider{err: genai.APIError{Code: 400, Message: "API key not valid.", Status: "INVALID_ARGUMENT"}}, zap.NewNop())

	_, _, err := mm.Analyze(context.Background(), testAudio())

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, "Gemini", apiErr.Provider)
}

func TestAnalyzeCapsTranscript(t *testing.T) {
	long := strings.Repeat("a", constants.AIInputLimits.MaxTranscriptChars+10)
	provider := &fakeProvider{result: ProviderResult{
		Text:       `{"transcript":"","clarity_score":70,"communication_focus":"Instruction"}`,
		Transcript: long,
	}}
	mm := NewModelManagerWithProvider(provider, zap.NewNop())

	analysis, _, err := mm.Analyze(context.Background(), testAudio())
	require.NoError(t, err)

	assert.Equal(t, constants.AIInputLimits.MaxTranscriptChars+len("..."), len(analysis.Transcript))
	assert.True(t, strings.HasSuffix(analysis.Transcript, "..."))
}
