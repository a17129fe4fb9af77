package domain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClarityPercent(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{87, "87%"},
		{87.5, "87.5%"},
		{0, "0%"},
		{130, "130%"},
		{-4, "-4%"},
	}

	for _, tt := range tests {
		r := &AnalysisResult{ClarityScore: tt.score}
		assert.Equal(t, tt.want, r.ClarityPercent())
	}
}

func TestMIMETypeForFormat(t *testing.T) {
	assert.Equal(t, "audio/mpeg", MIMETypeForFormat("mp3"))
	assert.Equal(t, "audio/aac", MIMETypeForFormat("m4a"))
	assert.Equal(t, "audio/ogg", MIMETypeForFormat("opus"))
	assert.Equal(t, "audio/webm", MIMETypeForFormat("webm"))
	assert.Equal(t, "audio/mpeg", MIMETypeForFormat("unknown"))
}

func TestAudioSourceCleanupRemovesWorkDir(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "video-insight-1")
	require.NoError(t, os.MkdirAll(workDir, 0755))
	path := filepath.Join(workDir, "audio.mp3")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	audio := &AudioSource{Path: path}
	require.NoError(t, audio.Cleanup())

	_, err := os.Stat(workDir)
	assert.True(t, os.IsNotExist(err))

	var nilAudio *AudioSource
	assert.NoError(t, nilAudio.Cleanup())
}

func TestOutcomeConstructors(t *testing.T) {
	result := &AnalysisResult{ClarityScore: 90}
	assert.Equal(t, OutcomeSuccess, Succeeded(result).Kind)
	assert.Same(t, result, Succeeded(result).Result)

	api := APIFailed(errors.New("quota exceeded"))
	assert.Equal(t, OutcomeAPIFailure, api.Kind)
	assert.Equal(t, "quota exceeded", api.Message)
	assert.Nil(t, api.Result)

	unknown := UnknownFailed(errors.New("boom"), "stack")
	assert.Equal(t, OutcomeUnknownFailure, unknown.Kind)
	assert.Equal(t, "stack", unknown.Detail)
}

func TestStatusReporterNilSafe(t *testing.T) {
	var reporter StatusReporter
	assert.NotPanics(t, func() { reporter.Report(1, "ignored") })

	var got []StatusUpdate
	reporter = func(update StatusUpdate) { got = append(got, update) }
	reporter.Report(2, "Extracting")

	assert.Equal(t, []StatusUpdate{{Step: 2, Message: "Extracting"}}, got)
}
