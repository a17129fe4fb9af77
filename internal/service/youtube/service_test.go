package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	apperrors "github.com/kapu/video-insight-analyzer/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=share", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abc123XYZ_-", "abc123XYZ_-"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/live/dQw4w9WgXcQ/extra", "dQw4w9WgXcQ"},
		{"https://www.loom.com/share/0123456789abcdef", ""},
		{"https://www.youtube.com/channel/UC123", ""},
		{"not a url", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseVideoID(tt.url), tt.url)
	}
}

func TestNewYouTubeServiceRequiresKey(t *testing.T) {
	_, err := NewYouTubeService(context.Background(), "", zap.NewNop())
	assert.Error(t, err)
}

func TestVideoDetailsSkipsNonYouTubeURL(t *testing.T) {
	svc, err := NewYouTubeService(context.Background(), "test-key", zap.NewNop())
	assert.NoError(t, err)

	details, err := svc.VideoDetails(context.Background(), "https://www.loom.com/share/abc")
	assert.NoError(t, err)
	assert.Nil(t, details)
}

func newTestService(t *testing.T, handler http.HandlerFunc) *YouTubeService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewYouTubeService(context.Background(), "test-key", zap.NewNop(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return svc
}

func TestVideoDetails(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"dQw4w9WgXcQ","snippet":{"title":"Weekly sync","channelTitle":"Team"}}]}`))
	})

	details, err := svc.VideoDetails(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NotNil(t, details)

	assert.Equal(t, "Weekly sync", details.Title)
	assert.Equal(t, "Team", details.Channel)
}

func TestVideoDetailsNotFound(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	details, err := svc.VideoDetails(context.Background(), "https://youtu.be/missing")
	assert.NoError(t, err)
	assert.Nil(t, details)
}

func TestVideoDetailsStopsCallingAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quotaExceeded"}}`))
	})

	for i := 0; i < 3; i++ {
		_, err := svc.VideoDetails(context.Background(), "https://youtu.be/abc")
		assert.True(t, apperrors.IsAPIError(err))
	}

	details, err := svc.VideoDetails(context.Background(), "https://youtu.be/abc")
	assert.NoError(t, err)
	assert.Nil(t, details)
	assert.Equal(t, int32(3), hits.Load())
}

func TestVideoDetailsCanceledLookupsKeepBreakerClosed(t *testing.T) {
	var hits atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"abc","snippet":{"title":"Weekly sync","channelTitle":"Team"}}]}`))
	})

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.VideoDetails(ctx, "https://youtu.be/abc")
		assert.Error(t, err)
	}

	details, err := svc.VideoDetails(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Weekly sync", details.Title)
	assert.Equal(t, int32(1), hits.Load())
}
