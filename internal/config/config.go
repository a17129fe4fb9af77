package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Analyzer AnalyzerConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Media    MediaConfig
	YouTube  YouTubeConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

type AnalyzerConfig struct {
	Provider string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey             string
	Model              string
	TranscriptionModel string
}

type MediaConfig struct {
	YtDlpPath   string
	TempDir     string
	AudioFormat string
	MaxFileSize string
}

type YouTubeConfig struct {
	APIKey string
}

type ServerConfig struct {
	Host    string
	Port    int
	GinMode string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Analyzer: AnalyzerConfig{
			Provider: strings.ToLower(getEnv("ANALYZER_PROVIDER", ProviderGemini)),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			Model:              getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			TranscriptionModel: getEnv("OPENAI_TRANSCRIPTION_MODEL", "whisper-1"),
		},
		Media: MediaConfig{
			YtDlpPath:   getEnv("YTDLP_PATH", ""),
			TempDir:     getEnv("MEDIA_TEMP_DIR", os.TempDir()),
			AudioFormat: getEnv("MEDIA_AUDIO_FORMAT", "mp3"),
			MaxFileSize: getEnv("MEDIA_MAX_FILESIZE", "200M"),
		},
		YouTube: YouTubeConfig{
			APIKey: getEnv("YOUTUBE_API_KEY", ""),
		},
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8501),
			GinMode: getEnv("GIN_MODE", "release"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate rejects malformed settings. A missing API key is not an error here:
// the UI reports it through ClientReady instead.
func (c *Config) Validate() error {
	switch c.Analyzer.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("ANALYZER_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.Analyzer.Provider)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Media.AudioFormat == "" {
		return fmt.Errorf("MEDIA_AUDIO_FORMAT is required")
	}
	return nil
}

// APIKey returns the credential of the selected provider.
func (c *Config) APIKey() string {
	if c.Analyzer.Provider == ProviderOpenAI {
		return c.OpenAI.APIKey
	}
	return c.Gemini.APIKey
}

// APIKeyName returns the environment variable that holds APIKey.
func (c *Config) APIKeyName() string {
	if c.Analyzer.Provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func (c *Config) ClientReady() bool {
	return strings.TrimSpace(c.APIKey()) != ""
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
