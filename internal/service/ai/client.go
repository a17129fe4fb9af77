package ai

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ClientProvider owns the process-wide analysis client. The client is built
// at most once; later calls return the same handle (or the same error).
type ClientProvider struct {
	cfg    ModelManagerConfig
	logger *zap.Logger
	build  func(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error)

	once    sync.Once
	manager *ModelManager
	err     error
}

func NewClientProvider(cfg ModelManagerConfig, logger *zap.Logger) *ClientProvider {
	return &ClientProvider{
		cfg:    cfg,
		logger: logger,
		build:  NewModelManager,
	}
}

// Client returns the shared handle, constructing it on first use.
func (p *ClientProvider) Client(ctx context.Context) (*ModelManager, error) {
	p.once.Do(func() {
		p.manager, p.err = p.build(ctx, p.cfg, p.logger)
		if p.err != nil {
			p.logger.Error("Failed to initialize analysis client",
				zap.String("provider", p.cfg.Provider),
				zap.Error(p.err),
			)
		}
	})
	return p.manager, p.err
}
