package feed

import (
	"context"

	"go.uber.org/zap"

	"github.com/matheus3301/guestfeed/internal/metrics"
)

// Retrieval paths of the window fetcher.
const (
	PathFiltered = "filtered"
	PathLatest   = "latest"
)

// readResult keeps a read failure visible to logging and metrics until it is
// collapsed for the caller.
type readResult struct {
	op       string
	messages []Message
	err      error
}

func (r readResult) collapse(logger *zap.Logger, m *metrics.Feed) []Message {
	if r.err == nil {
		return r.messages
	}
	logger.Warn("message store read failed", zap.String("op", r.op), zap.Error(r.err))
	m.ReadFailure(r.op)
	return nil
}

// Fetcher returns fixed-size windows of the feed.
type Fetcher struct {
	store   MessageStore
	search  FilteredSearcher
	logger  *zap.Logger
	metrics *metrics.Feed
}

// NewFetcher discovers the filtered path on store once.
func NewFetcher(store MessageStore, logger *zap.Logger, m *metrics.Feed) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{store: store, logger: logger, metrics: m}
	if s, ok := store.(FilteredSearcher); ok {
		f.search = s
	}
	return f
}

// Fetch reads the window at cur and returns it with the advanced cursor.
// Store failures yield an empty window. The watch baseline moves only on a
// non-empty unfiltered first page.
func (f *Fetcher) Fetch(ctx context.Context, cur Cursor, filter Filter) ([]Message, Cursor) {
	cur = cur.Normalize()
	res := f.window(ctx, cur, filter)
	msgs := res.collapse(f.logger, f.metrics)

	next := cur.advance()
	if filter.IsEmpty() && cur.Offset == 0 && len(msgs) > 0 {
		next.LastSeen = msgs[0].LastUpdated
	}
	return msgs, next
}

func (f *Fetcher) window(ctx context.Context, cur Cursor, filter Filter) readResult {
	if f.store == nil {
		return readResult{op: "fetch", err: ErrCollaboratorUnavailable}
	}
	if !filter.IsEmpty() && f.search != nil {
		f.metrics.Fetch(PathFiltered)
		msgs, err := f.search.SearchMessages(ctx, filter, cur.Offset, cur.PageLength)
		return readResult{op: "search", messages: msgs, err: err}
	}
	f.metrics.Fetch(PathLatest)
	msgs, err := f.store.LatestFromGuests(ctx, cur.Offset, cur.PageLength)
	return readResult{op: "fetch", messages: msgs, err: err}
}
