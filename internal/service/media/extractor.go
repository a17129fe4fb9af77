package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kapu/video-insight-analyzer/internal/domain"
	apperrors "github.com/kapu/video-insight-analyzer/pkg/errors"
	"go.uber.org/zap"
)

const audioBaseName = "audio"

// Extractor downloads the audio track of a public video into a fresh temp
// directory per call.
type Extractor struct {
	downloader  Downloader
	tempDir     string
	audioFormat string
	logger      *zap.Logger
}

func NewExtractor(downloader Downloader, tempDir, audioFormat string, logger *zap.Logger) *Extractor {
	return &Extractor{
		downloader:  downloader,
		tempDir:     tempDir,
		audioFormat: audioFormat,
		logger:      logger,
	}
}

// ExtractAudio returns the downloaded track. The caller owns the result and
// must call Cleanup on it. yt-dlp failures and unusable output are reported
// as *errors.ProcessingError.
func (e *Extractor) ExtractAudio(ctx context.Context, videoURL string) (*domain.AudioSource, error) {
	if err := os.MkdirAll(e.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create media temp dir: %w", err)
	}

	workDir, err := os.MkdirTemp(e.tempDir, "video-insight-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	start := time.Now()
	e.logger.Info("Downloading audio", zap.String("url", videoURL), zap.String("dir", workDir))

	outputTemplate := filepath.Join(workDir, audioBaseName+".%(ext)s")
	if err := e.downloader.DownloadAudio(ctx, videoURL, outputTemplate); err != nil {
		_ = os.RemoveAll(workDir)
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, apperrors.NewProcessingError("could not download audio from the video URL", "download", err)
	}

	path, info, err := findAudioFile(workDir, e.audioFormat)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, apperrors.NewProcessingError("yt-dlp produced no usable audio", "download", err)
	}

	e.logger.Info("Audio ready",
		zap.String("url", videoURL),
		zap.String("path", path),
		zap.Int64("bytes", info.Size()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &domain.AudioSource{
		Path:      path,
		MIMEType:  domain.MIMETypeForFormat(strings.TrimPrefix(filepath.Ext(path), ".")),
		SizeBytes: info.Size(),
		URL:       videoURL,
	}, nil
}

// findAudioFile prefers audio.<format> and falls back to any audio.* file
// (yt-dlp keeps the source container when conversion is skipped).
func findAudioFile(dir, format string) (string, os.FileInfo, error) {
	preferred := filepath.Join(dir, audioBaseName+"."+format)
	candidates := []string{preferred}

	matches, err := filepath.Glob(filepath.Join(dir, audioBaseName+".*"))
	if err != nil {
		return "", nil, err
	}
	candidates = append(candidates, matches...)

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Size() == 0 {
			return "", nil, fmt.Errorf("audio file %s is empty", filepath.Base(candidate))
		}
		return candidate, info, nil
	}

	return "", nil, fmt.Errorf("no audio file found in %s", dir)
}
