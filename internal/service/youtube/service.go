package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kapu/video-insight-analyzer/internal/constants"
	"github.com/kapu/video-insight-analyzer/internal/domain"
	"github.com/kapu/video-insight-analyzer/internal/util"
	apperrors "github.com/kapu/video-insight-analyzer/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeService looks up display metadata for YouTube links.
type YouTubeService struct {
	service *youtube.Service
	breaker *util.CircuitBreaker
	logger  *zap.Logger
}

func NewYouTubeService(ctx context.Context, apiKey string, logger *zap.Logger, opts ...option.ClientOption) (*YouTubeService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	logger.Info("YouTube video details enabled")

	return &YouTubeService{
		service: service,
		breaker: util.NewCircuitBreaker("youtube", constants.YouTubeConfig.BreakerThreshold, constants.YouTubeConfig.BreakerCooldown, logger),
		logger:  logger,
	}, nil
}

// VideoDetails returns nil, nil when rawURL is not a YouTube video link or
// lookups are suspended after repeated API failures.
func (ys *YouTubeService) VideoDetails(ctx context.Context, rawURL string) (*domain.VideoDetails, error) {
	videoID := ParseVideoID(rawURL)
	if videoID == "" {
		return nil, nil
	}

	if !ys.breaker.Allow() {
		ys.logger.Debug("YouTube lookup skipped: circuit open", zap.String("video_id", videoID))
		return nil, nil
	}

	response, err := ys.service.Videos.List([]string{"snippet"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		// canceled or timed-out lookups do not count against the API
		if ctx.Err() == nil {
			ys.breaker.RecordFailure()
		}
		code := 0
		if apiErr, ok := err.(*googleapi.Error); ok {
			code = apiErr.Code
		}
		return nil, apperrors.NewAPIError("YouTube API error", "YouTube", code, err)
	}

	ys.breaker.RecordSuccess()

	if len(response.Items) == 0 || response.Items[0].Snippet == nil {
		ys.logger.Debug("YouTube video not found", zap.String("video_id", videoID))
		return nil, nil
	}

	snippet := response.Items[0].Snippet
	return &domain.VideoDetails{
		Title:   snippet.Title,
		Channel: snippet.ChannelTitle,
	}, nil
}

// ParseVideoID extracts the video ID from watch, youtu.be, shorts, embed and
// live URLs. It returns "" for anything else.
func ParseVideoID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	path := strings.Trim(u.Path, "/")

	switch host {
	case "youtu.be":
		return firstSegment(path)
	case "youtube.com", "music.youtube.com":
		if path == "watch" {
			return u.Query().Get("v")
		}
		for _, prefix := range []string{"shorts/", "embed/", "live/"} {
			if strings.HasPrefix(path, prefix) {
				return firstSegment(strings.TrimPrefix(path, prefix))
			}
		}
	}

	return ""
}

func firstSegment(path string) string {
	if idx := strings.Index(path, "/"); idx >= 0 {
		return path[:idx]
	}
	return path
}
