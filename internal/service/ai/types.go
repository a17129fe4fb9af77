package ai

// ModelPreset represents the model usage preset
type ModelPreset string

const (
	PresetPrecise       ModelPreset = "precise"       // scoring over an existing transcript
	PresetBalanced      ModelPreset = "balanced"      // general JSON answers
	PresetTranscription ModelPreset = "transcription" // audio in, long transcript out
)

// ModelConfig holds model configuration
type ModelConfig struct {
	Temperature      float32
	TopP             float32
	TopK             int
	MaxOutputTokens  int
	ResponseMimeType string // "application/json" or "text/plain"
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// GenerateMetadata contains metadata about the generation
type GenerateMetadata struct {
	Provider string
	Model    string
}

// GenerateOptions holds options for AI generation
type GenerateOptions struct {
	JSONMode bool
}

// Analysis is the decoded model answer.
type Analysis struct {
	Transcript         string  `json:"transcript"`
	ClarityScore       float64 `json:"clarity_score"`
	CommunicationFocus string  `json:"communication_focus"`
}

// GetPresetConfig returns the configuration for a preset
func GetPresetConfig(preset ModelPreset) ModelConfig {
	switch preset {
	case PresetPrecise:
		return ModelConfig{
			Temperature:     0.1,
			TopP:            0.9,
			TopK:            20,
			MaxOutputTokens: 1024,
		}
	case PresetBalanced:
		return ModelConfig{
			Temperature:     0.1,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 4096,
		}
	case PresetTranscription:
		return ModelConfig{
			Temperature:     0.0,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 65536,
		}
	default:
		return GetPresetConfig(PresetBalanced)
	}
}

// GetOpenAIPresetConfig returns OpenAI configuration for a preset
func GetOpenAIPresetConfig(preset ModelPreset) OpenAIConfig {
	switch preset {
	case PresetPrecise:
		return OpenAIConfig{
			Temperature: 0.1,
			MaxTokens:   1024,
			TopP:        0.9,
		}
	case PresetTranscription:
		return OpenAIConfig{
			Temperature: 0.0,
			MaxTokens:   16384,
			TopP:        0.95,
		}
	default:
		return OpenAIConfig{
			Temperature: 0.1,
			MaxTokens:   4096,
			TopP:        0.95,
		}
	}
}
