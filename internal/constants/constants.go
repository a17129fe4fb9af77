package constants

import "time"

var URLSchemes = []string{"http://", "https://"}

var ServerConfig = struct {
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	BuildTimeout      time.Duration
}{
	ReadHeaderTimeout: 10 * time.Second,
	ShutdownTimeout:   10 * time.Second,
	BuildTimeout:      30 * time.Second,
}

var WebSocketConfig = struct {
	WriteTimeout   time.Duration
	MaxMessageSize int64
}{
	WriteTimeout:   10 * time.Second,
	MaxMessageSize: 4096,
}

var MediaLimits = struct {
	InlineAudioBytes int64
}{
	InlineAudioBytes: 18 << 20, // Gemini inline request limit is 20MB including prompt
}

var AIInputLimits = struct {
	MaxResponsePreview int
	MaxTranscriptChars int
}{
	MaxResponsePreview: 200,
	MaxTranscriptChars: 200000,
}

var YouTubeConfig = struct {
	LookupTimeout    time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}{
	LookupTimeout:    5 * time.Second,
	BreakerThreshold: 3,
	BreakerCooldown:  10 * time.Minute,
}

// Progress lines shown while a run is in flight.
var StatusMessages = struct {
	Starting    string
	Extracting  string
	Sending     string
	Structuring string
	Running     string
	Complete    string
}{
	Starting:    "Starting video analysis pipeline...",
	Extracting:  "Extracting and preparing audio from URL...",
	Sending:     "Sending audio to %s for transcription and LLM analysis...",
	Structuring: "Analysis complete. Structuring results.",
	Running:     "Analyzing Video...",
	Complete:    "Analysis Complete!",
}

var UIMessages = struct {
	InvalidURL     string
	APIErrorHint   string
	ProcessingHint string
	KeyMissing     string
	InitFailed     string
	Footer         string
}{
	InvalidURL:     "Please enter a valid URL starting with http:// or https://",
	APIErrorHint:   "Please verify your %s API key is correct and ensure network connectivity.",
	ProcessingHint: "This usually means `yt-dlp` couldn't process the video URL. Ensure the link is public and accessible.",
	KeyMissing:     "Please ensure you have set the `%s` in your `.env` file and restarted the application.",
	InitFailed:     "Failed to initialize %s Client: %s",
	Footer:         "Backend powered by Go, yt-dlp, and %s. UI via gin.",
}
