package domain

import (
	"os"
	"path/filepath"
	"strconv"
)

// AnalysisResult is the output of one pipeline run. ClarityScore and
// CommunicationFocus are opaque model outputs and are never clamped or mapped.
type AnalysisResult struct {
	ClarityScore       float64       `json:"clarity_score"`
	CommunicationFocus string        `json:"communication_focus"`
	Transcript         string        `json:"transcript"`
	Video              *VideoDetails `json:"video,omitempty"`
}

// ClarityPercent formats the score for display, e.g. "87%" or "87.5%".
func (r *AnalysisResult) ClarityPercent() string {
	return strconv.FormatFloat(r.ClarityScore, 'f', -1, 64) + "%"
}

type VideoDetails struct {
	Title   string `json:"title"`
	Channel string `json:"channel"`
}

// AudioSource is a downloaded audio track living in its own temp directory.
type AudioSource struct {
	Path      string
	MIMEType  string
	SizeBytes int64
	URL       string
}

// Cleanup removes the directory holding the audio file.
func (a *AudioSource) Cleanup() error {
	if a == nil || a.Path == "" {
		return nil
	}
	return os.RemoveAll(filepath.Dir(a.Path))
}

// MIMETypeForFormat maps a yt-dlp audio format or file extension to the MIME
// type sent to the model.
func MIMETypeForFormat(format string) string {
	switch format {
	case "mp3":
		return "audio/mpeg"
	case "m4a", "aac":
		return "audio/aac"
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	case "opus", "vorbis", "ogg":
		return "audio/ogg"
	case "webm":
		return "audio/webm"
	default:
		return "audio/mpeg"
	}
}
