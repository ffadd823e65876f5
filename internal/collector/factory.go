package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qepting91/reddit-conversations/internal/config"
	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/metrics"
)

// NewCollector selects the correct implementation based on the mode and wraps
// it with request metrics.
func NewCollector(ctx context.Context, cfg config.Reddit, m *metrics.Metrics, log *slog.Logger) (domain.Collector, error) {
	var (
		c   domain.Collector
		err error
	)
	switch cfg.Mode {
	case config.ModeAPI:
		c, err = NewAPIClient(ctx, APICredentials{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Username:     cfg.Username,
			Password:     cfg.Password,
			UserAgent:    cfg.UserAgent,
		})
	case config.ModePublic:
		c, err = NewPublicClient(cfg.UserAgent)
	case config.ModeMock:
		c = NewMockClient()
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api', 'public', or 'mock')", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}
	return NewInstrumented(c, m, log), nil
}
