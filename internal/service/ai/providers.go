package ai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kapu/video-insight-analyzer/internal/constants"
	"github.com/kapu/video-insight-analyzer/internal/domain"
	"github.com/kapu/video-insight-analyzer/internal/prompt"
	apperrors "github.com/kapu/video-insight-analyzer/pkg/errors"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// AudioProvider turns an audio track into a JSON answer matching Analysis.
type AudioProvider interface {
	Name() string
	Generate(ctx context.Context, audio *domain.AudioSource, opts *GenerateOptions) (ProviderResult, error)
}

type ProviderResult struct {
	Text  string
	Model string
	// Transcript is set by providers that transcribe in a separate call.
	Transcript string
}

// GeminiProvider sends audio and instructions in a single multimodal request.
type GeminiProvider struct {
	client       *genai.Client
	defaultModel string
	prompts      *prompt.PromptBuilder
	logger       *zap.Logger
	pollInterval time.Duration
}

func NewGeminiProvider(client *genai.Client, defaultModel string, prompts *prompt.PromptBuilder, logger *zap.Logger) *GeminiProvider {
	return &GeminiProvider{
		client:       client,
		defaultModel: defaultModel,
		prompts:      prompts,
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

func (g *GeminiProvider) Name() string {
	return "Gemini"
}

func (g *GeminiProvider) Generate(ctx context.Context, audio *domain.AudioSource, opts *GenerateOptions) (ProviderResult, error) {
	if g.client == nil {
		return ProviderResult{}, fmt.Errorf("gemini client not initialized")
	}

	modelName := g.defaultModel
	config := GetPresetConfig(PresetTranscription)

	if opts != nil && opts.JSONMode {
		config.ResponseMimeType = "application/json"
	}

	instruction, err := g.prompts.BuildAudioAnalysis(audio.URL)
	if err != nil {
		return ProviderResult{}, err
	}

	audioPart, release, err := g.audioPart(ctx, audio)
	if err != nil {
		return ProviderResult{}, err
	}
	defer release()

	g.logger.Debug("Generating with Gemini",
		zap.String("model", modelName),
		zap.Int64("audio_bytes", audio.SizeBytes),
		zap.Bool("json_mode", opts != nil && opts.JSONMode),
	)

	topK := float32(config.TopK)
	maxTokens := int32(config.MaxOutputTokens)

	genConfig := &genai.GenerateContentConfig{
		Temperature:      &config.Temperature,
		TopP:             &config.TopP,
		TopK:             &topK,
		MaxOutputTokens:  maxTokens,
		ResponseMIMEType: config.ResponseMimeType,
	}
	if config.ResponseMimeType == "application/json" {
		genConfig.ResponseSchema = analysisSchema()
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelName, []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				audioPart,
				genai.NewPartFromText(instruction),
			},
		},
	}, genConfig)
	if err != nil {
		g.logger.Error("Gemini generation failed", zap.Error(err))
		return ProviderResult{}, err
	}

	text := extractTextFromGeminiResponse(resp)
	if text == "" {
		return ProviderResult{}, apperrors.NewProcessingError("empty response from Gemini", "analysis", nil)
	}

	g.logger.Debug("Gemini response received", zap.Int("length", len(text)))
	return ProviderResult{Text: text, Model: modelName}, nil
}

// audioPart inlines small files and uploads large ones through the Files API.
// The returned release func deletes any uploaded file.
func (g *GeminiProvider) audioPart(ctx context.Context, audio *domain.AudioSource) (*genai.Part, func(), error) {
	noop := func() {}

	if audio.SizeBytes <= constants.MediaLimits.InlineAudioBytes {
		data, err := os.ReadFile(audio.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("read audio file: %w", err)
		}
		return genai.NewPartFromBytes(data, audio.MIMEType), noop, nil
	}

	g.logger.Info("Uploading audio to Gemini Files API",
		zap.String("path", audio.Path),
		zap.Int64("bytes", audio.SizeBytes),
	)

	file, err := g.client.Files.UploadFromPath(ctx, audio.Path, &genai.UploadFileConfig{MIMEType: audio.MIMEType})
	if err != nil {
		return nil, noop, err
	}

	release := func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := g.client.Files.Delete(cleanupCtx, file.Name, nil); err != nil {
			g.logger.Warn("Failed to delete uploaded audio", zap.String("file", file.Name), zap.Error(err))
		}
	}

	active, err := g.waitForActive(ctx, file)
	if err != nil {
		release()
		return nil, noop, err
	}

	return genai.NewPartFromURI(active.URI, active.MIMEType), release, nil
}

func (g *GeminiProvider) waitForActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	current := file
	for {
		switch current.State {
		case genai.FileStateActive:
			return current, nil
		case genai.FileStateFailed:
			return nil, apperrors.NewProcessingError("Gemini could not process the uploaded audio", "upload", nil)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		next, err := g.client.Files.Get(ctx, current.Name, nil)
		if err != nil {
			return nil, err
		}
		current = next
	}
}

func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"transcript":          {Type: genai.TypeString},
			"clarity_score":       {Type: genai.TypeNumber},
			"communication_focus": {Type: genai.TypeString},
		},
		Required: []string{"transcript", "clarity_score", "communication_focus"},
	}
}

// OpenAIProvider transcribes with the audio endpoint, then scores the text
// with a chat completion.
type OpenAIProvider struct {
	client             *openai.Client
	defaultModel       string
	transcriptionModel string
	prompts            *prompt.PromptBuilder
	logger             *zap.Logger
}

func NewOpenAIProvider(apiKey, defaultModel, transcriptionModel string, prompts *prompt.PromptBuilder, logger *zap.Logger) *OpenAIProvider {
	if apiKey == "" {
		return nil
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client:             &client,
		defaultModel:       defaultModel,
		transcriptionModel: transcriptionModel,
		prompts:            prompts,
		logger:             logger,
	}
}

func (o *OpenAIProvider) Name() string {
	return "OpenAI"
}

func (o *OpenAIProvider) Generate(ctx context.Context, audio *domain.AudioSource, opts *GenerateOptions) (ProviderResult, error) {
	if o.client == nil {
		return ProviderResult{}, fmt.Errorf("OpenAI client not initialized")
	}

	transcript, err := o.transcribe(ctx, audio)
	if err != nil {
		return ProviderResult{}, err
	}

	instruction, err := o.prompts.BuildTranscriptAnalysis(audio.URL, transcript)
	if err != nil {
		return ProviderResult{}, err
	}

	modelName := o.defaultModel
	config := GetOpenAIPresetConfig(PresetPrecise)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(instruction),
	}
	if opts != nil && opts.JSONMode {
		messages = []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You must respond with valid JSON only. Do not include any text outside the JSON object."),
			openai.UserMessage(instruction),
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(modelName),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(config.MaxTokens)),
	}
	if !strings.HasPrefix(modelName, "gpt-5") {
		params.Temperature = openai.Float(float64(config.Temperature))
		params.TopP = openai.Float(float64(config.TopP))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		o.logger.Error("OpenAI generation failed", zap.Error(err))
		return ProviderResult{}, err
	}

	if len(resp.Choices) == 0 {
		return ProviderResult{}, apperrors.NewProcessingError("no choices in OpenAI response", "analysis", nil)
	}

	text := resp.Choices[0].Message.Content

	o.logger.Info("OpenAI response received",
		zap.Int("length", len(text)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return ProviderResult{Text: text, Model: modelName, Transcript: transcript}, nil
}

func (o *OpenAIProvider) transcribe(ctx context.Context, audio *domain.AudioSource) (string, error) {
	file, err := os.Open(audio.Path)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	o.logger.Debug("Transcribing with OpenAI",
		zap.String("model", o.transcriptionModel),
		zap.Int64("audio_bytes", audio.SizeBytes),
	)

	resp, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModel(o.transcriptionModel),
	})
	if err != nil {
		o.logger.Error("OpenAI transcription failed", zap.Error(err))
		return "", err
	}

	return strings.TrimSpace(resp.Text), nil
}

func extractTextFromGeminiResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	return strings.Join(texts, "")
}
