package feed

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/matheus3301/guestfeed/internal/metrics"
)

// Bubbling outcomes, also used as metric labels.
const (
	BubbleFound       = "found"
	BubbleFetched     = "fetched"
	BubbleMissing     = "missing"
	BubbleUnsupported = "unsupported"
	BubbleFailed      = "failed"
)

// Bubbler makes sure a requested conversation is part of a loaded window.
type Bubbler struct {
	threads ThreadFetcher
	logger  *zap.Logger
	metrics *metrics.Feed
}

// NewBubbler discovers the thread-fetch capability on store once.
func NewBubbler(store MessageStore, logger *zap.Logger, m *metrics.Feed) *Bubbler {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bubbler{logger: logger, metrics: m}
	if t, ok := store.(ThreadFetcher); ok {
		b.threads = t
	}
	return b
}

// Bubble returns msgs, extended with the conversation's threads when h is
// not already on the page, and the bubbled id. It never fails.
func (b *Bubbler) Bubble(ctx context.Context, msgs []Message, h Handle) ([]Message, string) {
	out, id, _ := b.bubble(ctx, msgs, h)
	return out, id
}

func (b *Bubbler) bubble(ctx context.Context, msgs []Message, h Handle) ([]Message, string, string) {
	if h.IsZero() {
		return msgs, "", ""
	}
	if slices.ContainsFunc(msgs, h.Matches) {
		b.metrics.Bubble(BubbleFound)
		return msgs, h.ID(), BubbleFound
	}
	if b.threads == nil {
		b.logger.Info("conversation not on page and store cannot fetch threads",
			zap.String("conversation", h.ID()))
		b.metrics.Bubble(BubbleUnsupported)
		return msgs, "", BubbleUnsupported
	}

	extra, err := b.threads.BookingGuestThreads(ctx, h)
	if err != nil {
		readResult{op: "bubble", err: err}.collapse(b.logger, b.metrics)
		b.metrics.Bubble(BubbleFailed)
		return msgs, "", BubbleFailed
	}
	if len(extra) == 0 {
		b.metrics.Bubble(BubbleMissing)
		return msgs, "", BubbleMissing
	}
	b.metrics.Bubble(BubbleFetched)
	return append(slices.Clip(msgs), extra...), h.ID(), BubbleFetched
}
