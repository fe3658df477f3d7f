package view

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the watch period when none is configured.
const DefaultInterval = 60 * time.Second

// Poller ticks a widget's change watch on a fixed interval.
type Poller struct {
	widget   *Widget
	interval time.Duration
	logger   *zap.Logger
}

func NewPoller(w *Widget, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{widget: w, interval: interval, logger: logger}
}

// Run blocks until ctx is done. A failed tick is logged and skipped.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := p.widget.Tick(ctx)
			if err != nil {
				p.logger.Warn("watch tick failed", zap.Error(err))
				continue
			}
			if changed {
				p.logger.Debug("feed changed, reloaded first window")
			}
		}
	}
}
