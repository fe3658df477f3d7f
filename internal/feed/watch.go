package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/guestfeed/internal/metrics"
)

// Watcher compares a client's baseline with the store's latest message.
type Watcher struct {
	store   MessageStore
	logger  *zap.Logger
	metrics *metrics.Feed
}

func NewWatcher(store MessageStore, logger *zap.Logger, m *metrics.Feed) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{store: store, logger: logger, metrics: m}
}

// Changed reports whether the latest message differs from lastSeen. Any
// difference counts, including one that moved backwards. Without a baseline,
// or when the store fails, nothing has changed.
func (w *Watcher) Changed(ctx context.Context, lastSeen time.Time) bool {
	if lastSeen.IsZero() || w.store == nil {
		return false
	}
	msgs, err := w.store.LatestFromGuests(ctx, 0, 1)
	latest := readResult{op: "watch", messages: msgs, err: err}.collapse(w.logger, w.metrics)
	if len(latest) == 0 {
		w.metrics.Watch(false)
		return false
	}
	changed := !latest[0].LastUpdated.Truncate(time.Second).Equal(lastSeen.Truncate(time.Second))
	w.metrics.Watch(changed)
	return changed
}
