package ai

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestClientProviderBuildsOnce(t *testing.T) {
	p := NewClientProvider(ModelManagerConfig{Provider: "gemini"}, zap.NewNop())

	var calls int
	var mu sync.Mutex
	p.build = func(_ context.Context, _ ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return NewModelManagerWithProvider(&fakeProvider{}, logger), nil
	}

	var wg sync.WaitGroup
	handles := make([]*ModelManager, 8)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], _ = p.Client(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
}

func TestClientProviderRemembersError(t *testing.T) {
	p := NewClientProvider(ModelManagerConfig{}, zap.NewNop())

	var calls int
	p.build = func(context.Context, ModelManagerConfig, *zap.Logger) (*ModelManager, error) {
		calls++
		return nil, errors.New("invalid key")
	}

	_, err1 := p.Client(context.Background())
	_, err2 := p.Client(context.Background())

	assert.EqualError(t, err1, "invalid key")
	assert.Equal(t, err1, err2)
	assert.Equal(t, 1, calls)
}
