package view

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/guestfeed/internal/api"
	"github.com/matheus3301/guestfeed/internal/feed"
)

// API is the part of the feed service a widget needs.
type API interface {
	LoadMessages(ctx context.Context, req *api.LoadMessagesRequest) (*api.LoadMessagesResponse, error)
	WatchMessages(ctx context.Context, lastSeen string) (bool, error)
}

// Page is what a widget currently shows.
type Page struct {
	Messages   []api.Message
	Offset     int
	NextOffset int
	BubbledID  string
	Filtered   bool
	Watching   bool // a watch baseline is set
}

// Widget holds the state of one rendered feed: its cursor, its filters and
// the last page loaded. Widgets share nothing with each other.
type Widget struct {
	mu       sync.Mutex
	api      API
	cursor   feed.Cursor
	filter   feed.RawFilter
	page     Page
	handle   string
	onReload func(Page)
	logger   *zap.Logger
}

// Option configures a Widget.
type Option func(*Widget)

// WithOnReload registers fn to receive every freshly loaded page. fn runs
// after the widget is unlocked and may call back into it.
func WithOnReload(fn func(Page)) Option { return func(w *Widget) { w.onReload = fn } }

func WithLogger(l *zap.Logger) Option { return func(w *Widget) { w.logger = l } }

// New returns an idle widget.
func New(a API, pageLength int, opts ...Option) *Widget {
	w := &Widget{api: a, cursor: feed.NewCursor(pageLength), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Notify asks the next load to bubble the conversation named by handle.
func (w *Widget) Notify(handle string) {
	w.mu.Lock()
	w.handle = handle
	w.mu.Unlock()
}

// Load reloads the current window.
func (w *Widget) Load(ctx context.Context) (Page, error) {
	w.mu.Lock()
	p, err := w.load(ctx)
	w.mu.Unlock()
	return w.reloaded(p, err)
}

// Navigate moves one page forward (dir > 0) or back (dir < 0) and loads it.
func (w *Widget) Navigate(ctx context.Context, dir int) (Page, error) {
	ev := feed.EventNavigateNext
	if dir < 0 {
		ev = feed.EventNavigatePrev
	}
	return w.transition(ctx, ev, nil)
}

// ApplyFilters replaces the filters and loads the first window.
func (w *Widget) ApplyFilters(ctx context.Context, f feed.RawFilter) (Page, error) {
	return w.transition(ctx, feed.EventFiltersApplied, &f)
}

// ClearFilters drops the filters and loads the first window.
func (w *Widget) ClearFilters(ctx context.Context) (Page, error) {
	return w.transition(ctx, feed.EventFiltersCleared, &feed.RawFilter{})
}

// Tick asks the daemon whether the feed changed since the baseline and, if
// so, goes back to the first window.
func (w *Widget) Tick(ctx context.Context) (bool, error) {
	w.mu.Lock()
	if !w.cursor.HasBaseline() {
		w.mu.Unlock()
		return false, nil
	}
	changed, err := w.api.WatchMessages(ctx, feed.FormatTime(w.cursor.LastSeen))
	if err != nil || !changed {
		w.mu.Unlock()
		return false, err
	}
	w.cursor, _ = w.cursor.Apply(feed.EventWatchDetectedChange)
	p, err := w.load(ctx)
	w.mu.Unlock()

	_, err = w.reloaded(p, err)
	return true, err
}

func (w *Widget) Cursor() feed.Cursor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

func (w *Widget) Filter() feed.RawFilter {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filter
}

// Page returns the last page loaded.
func (w *Widget) Page() Page {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.page
}

func (w *Widget) transition(ctx context.Context, ev feed.CursorEvent, filter *feed.RawFilter) (Page, error) {
	w.mu.Lock()
	next, err := w.cursor.Apply(ev)
	if err != nil {
		p := w.page
		w.mu.Unlock()
		return p, err
	}
	w.cursor = next
	if filter != nil {
		w.filter = *filter
	}
	p, err := w.load(ctx)
	w.mu.Unlock()
	return w.reloaded(p, err)
}

// reloaded hands a successful load to the reload callback. mu must not be held.
func (w *Widget) reloaded(p Page, err error) (Page, error) {
	if err == nil && w.onReload != nil {
		w.onReload(p)
	}
	return p, err
}

// load must be called with mu held. An empty window past the first one sends
// the widget back to offset 0, once.
func (w *Widget) load(ctx context.Context) (Page, error) {
	for attempt := 0; ; attempt++ {
		req := &api.LoadMessagesRequest{
			Filters:  w.filter,
			Offset:   w.cursor.Offset,
			Length:   w.cursor.PageLength,
			LastSeen: feed.FormatTime(w.cursor.LastSeen),
			BidConvo: w.handle,
		}
		resp, err := w.api.LoadMessages(ctx, req)
		if err != nil {
			return w.page, err
		}
		w.handle = ""

		if resp.LatestTimestamp != "" {
			latest, err := feed.ParseTime(resp.LatestTimestamp)
			if err != nil {
				return w.page, fmt.Errorf("daemon sent malformed latest_timestamp %q: %w", resp.LatestTimestamp, err)
			}
			w.cursor.LastSeen = latest
		}

		if len(resp.Page) == 0 && w.cursor.Offset > 0 && attempt == 0 {
			w.logger.Debug("empty window, returning to first page", zap.Int("offset", w.cursor.Offset))
			w.cursor.Offset = 0
			continue
		}

		w.page = Page{
			Messages:   resp.Page,
			Offset:     w.cursor.Offset,
			NextOffset: resp.NextOffset,
			BubbledID:  resp.BubbledID,
			Filtered:   !w.filter.IsEmpty(),
			Watching:   w.cursor.HasBaseline(),
		}
		return w.page, nil
	}
}
