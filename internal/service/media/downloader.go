package media

import (
	"context"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"
)

// Downloader fetches the audio track of url into outputTemplate.
type Downloader interface {
	DownloadAudio(ctx context.Context, url, outputTemplate string) error
}

// YtDlpDownloader runs the yt-dlp binary through go-ytdlp.
type YtDlpDownloader struct {
	executable  string
	audioFormat string
	maxFileSize string
	logger      *zap.Logger
}

func NewYtDlpDownloader(executable, audioFormat, maxFileSize string, logger *zap.Logger) *YtDlpDownloader {
	return &YtDlpDownloader{
		executable:  executable,
		audioFormat: audioFormat,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func (d *YtDlpDownloader) DownloadAudio(ctx context.Context, url, outputTemplate string) error {
	cmd := ytdlp.New().
		ExtractAudio().
		AudioFormat(d.audioFormat).
		NoPlaylist().
		Output(outputTemplate)

	if d.executable != "" {
		cmd = cmd.SetExecutable(d.executable)
	}

	args := make([]string, 0, 3)
	if d.maxFileSize != "" {
		args = append(args, "--max-filesize", d.maxFileSize)
	}
	args = append(args, url)

	result, err := cmd.Run(ctx, args...)
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = strings.TrimSpace(result.Stderr)
		}
		d.logger.Error("yt-dlp failed",
			zap.String("url", url),
			zap.String("stderr", stderr),
			zap.Error(err),
		)
		if stderr != "" {
			return &downloadError{cause: err, stderr: lastLine(stderr)}
		}
		return err
	}

	return nil
}

type downloadError struct {
	cause  error
	stderr string
}

func (e *downloadError) Error() string {
	return e.stderr
}

func (e *downloadError) Unwrap() error {
	return e.cause
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
