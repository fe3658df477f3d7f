package feed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/guestfeed/internal/metrics"
)

// LoadRequest is the input of LoadMessages. Handle is a raw conversation id, or "".
type LoadRequest struct {
	Filter RawFilter
	Cursor Cursor
	Handle string
}

// LoadResult is one loaded window. Cursor is the advanced cursor; LatestTimestamp
// is set only when the window established a new watch baseline.
type LoadResult struct {
	Messages        []Message
	TotalOnPage     int
	Cursor          Cursor
	LatestTimestamp time.Time
	BubbledID       string
}

// NextOffset is the offset of the following window.
func (r *LoadResult) NextOffset() int { return r.Cursor.Offset }

type options struct {
	logger          *zap.Logger
	metrics         *metrics.Feed
	normalizer      *Normalizer
	minStoreVersion uint
	pageLength      int
	onThreadUpdated func(ThreadUpdate)
}

// Option configures a Controller.
type Option func(*options)

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

func WithMetrics(m *metrics.Feed) Option { return func(o *options) { o.metrics = m } }

func WithNormalizer(n *Normalizer) Option { return func(o *options) { o.normalizer = n } }

// WithMinStoreVersion makes stores reporting an older schema unavailable.
func WithMinStoreVersion(v uint) Option { return func(o *options) { o.minStoreVersion = v } }

// WithPageLength sets the page length used when a request carries none.
func WithPageLength(n int) Option { return func(o *options) { o.pageLength = n } }

// WithThreadObserver registers fn to be called after each successful thread update.
func WithThreadObserver(fn func(ThreadUpdate)) Option {
	return func(o *options) { o.onThreadUpdated = fn }
}

// Controller serves the feed operations over a message store and a booking
// directory. It holds no per-client state; capabilities are discovered once.
type Controller struct {
	store      MessageStore
	bookings   BookingDirectory
	normalizer *Normalizer
	fetcher    *Fetcher
	bubbler    *Bubbler
	watcher    *Watcher
	mutator    *Mutator
	chat       ChatRenderer

	caps      []string
	version   uint
	available bool
	reason    string

	pageLength      int
	onThreadUpdated func(ThreadUpdate)
	logger          *zap.Logger
	metrics         *metrics.Feed
}

// NewController builds a Controller. A nil store, or one whose schema is
// older than the configured minimum, leaves the controller unavailable.
func NewController(store MessageStore, bookings BookingDirectory, opts ...Option) *Controller {
	o := options{pageLength: DefaultPageLength}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.normalizer == nil {
		o.normalizer = NewNormalizer(time.Local)
	}
	if o.pageLength <= 0 {
		o.pageLength = DefaultPageLength
	}

	c := &Controller{
		store:           store,
		bookings:        bookings,
		normalizer:      o.normalizer,
		fetcher:         NewFetcher(store, o.logger, o.metrics),
		bubbler:         NewBubbler(store, o.logger, o.metrics),
		watcher:         NewWatcher(store, o.logger, o.metrics),
		mutator:         NewMutator(store, bookings),
		pageLength:      o.pageLength,
		onThreadUpdated: o.onThreadUpdated,
		logger:          o.logger,
		metrics:         o.metrics,
	}
	c.discover(o.minStoreVersion)
	return c
}

func (c *Controller) discover(minVersion uint) {
	if c.store == nil {
		c.reason = "no message store configured"
		c.logger.Warn("feed unavailable", zap.String("reason", c.reason))
		return
	}
	c.caps = append(c.caps, CapLatest)
	if c.fetcher.search != nil {
		c.caps = append(c.caps, CapSearch)
	}
	if c.bubbler.threads != nil {
		c.caps = append(c.caps, CapThreadFetch)
	}
	if c.mutator.updater != nil {
		c.caps = append(c.caps, CapThreadUpdate)
	}
	if r, ok := c.store.(ChatRenderer); ok {
		c.chat = r
		c.caps = append(c.caps, CapChatRender)
	}
	if c.bookings != nil {
		c.caps = append(c.caps, CapBookings)
	}

	if v, ok := c.store.(Versioned); ok {
		c.caps = append(c.caps, CapSchemaVersion)
		version, err := v.SchemaVersion()
		if err != nil {
			c.reason = "could not read store version: " + err.Error()
			c.logger.Warn("feed unavailable", zap.String("reason", c.reason))
			return
		}
		c.version = version
	}
	if c.version < minVersion {
		c.reason = fmt.Sprintf("store version %d is below the required %d", c.version, minVersion)
		c.logger.Warn("feed unavailable", zap.String("reason", c.reason))
		return
	}
	c.available = true
	c.logger.Info("feed controller ready",
		zap.Strings("capabilities", c.caps),
		zap.Uint("store_version", c.version))
}

// Available reports whether the feed can be served at all.
func (c *Controller) Available() bool { return c.available }

// Reason explains why the controller is unavailable.
func (c *Controller) Reason() string { return c.reason }

// Capabilities lists the discovered store capabilities.
func (c *Controller) Capabilities() []string { return append([]string(nil), c.caps...) }

// StoreVersion is the schema version reported by the store, or 0.
func (c *Controller) StoreVersion() uint { return c.version }

// PageLength is the default page length.
func (c *Controller) PageLength() int { return c.pageLength }

func (c *Controller) unavailable() error {
	return newError(KindCollaboratorUnavailable, "message store unavailable: "+c.reason, nil)
}

// LoadMessages fetches one window of the feed and bubbles the requested
// conversation into it.
func (c *Controller) LoadMessages(ctx context.Context, req LoadRequest) (*LoadResult, error) {
	if !c.available {
		return nil, c.unavailable()
	}
	filter, err := c.normalizer.Normalize(req.Filter)
	if err != nil {
		return nil, err
	}
	cur := req.Cursor
	if cur.PageLength <= 0 {
		cur.PageLength = c.pageLength
	}
	cur = cur.Normalize()

	msgs, next := c.fetcher.Fetch(ctx, cur, filter)
	res := &LoadResult{Cursor: next}
	if filter.IsEmpty() && cur.Offset == 0 && len(msgs) > 0 {
		res.LatestTimestamp = msgs[0].LastUpdated
	}

	outcome := ""
	if h, ok := ParseHandle(req.Handle); ok {
		msgs, res.BubbledID, outcome = c.bubbler.bubble(ctx, msgs, h)
	}
	res.Messages = msgs
	res.TotalOnPage = len(msgs)

	c.logger.Debug("messages loaded",
		zap.Int("offset", cur.Offset),
		zap.Int("length", cur.PageLength),
		zap.Any("filter", filter.Fields()),
		zap.Int("count", res.TotalOnPage),
		zap.String("bubble", outcome))
	return res, nil
}

// WatchMessages reports whether the feed changed since lastSeen. A zero
// lastSeen is answered before the store is consulted.
func (c *Controller) WatchMessages(ctx context.Context, lastSeen time.Time) (bool, error) {
	if lastSeen.IsZero() {
		return false, nil
	}
	if !c.available {
		return false, c.unavailable()
	}
	return c.watcher.Changed(ctx, lastSeen), nil
}

// RenderChat returns the store-rendered conversation of a booking.
func (c *Controller) RenderChat(ctx context.Context, bookingID int64) (string, error) {
	if !c.available {
		return "", c.unavailable()
	}
	if c.bookings == nil {
		return "", newError(KindCollaboratorUnavailable, "booking directory unavailable", nil)
	}
	b, err := c.bookings.Booking(ctx, bookingID)
	if err != nil {
		return "", newError(KindCollaboratorUnavailable, "booking lookup failed", err)
	}
	if b == nil {
		return "", newError(KindNotFound, fmt.Sprintf("booking %d not found", bookingID), nil)
	}
	if c.chat == nil {
		return "", newError(KindCollaboratorUnavailable, "chat rendering is not supported by the message store", nil)
	}
	channel := ChatChannel(ClassifyChannel(b.Channel, b.ExternalID), b.Channel)
	out, err := c.chat.RenderChat(ctx, b.ID, channel)
	if err != nil {
		return "", fmt.Errorf("render chat %d: %w", b.ID, err)
	}
	return out, nil
}

// SetNoReplyNeeded sets the flag on the thread matching both ids.
func (c *Controller) SetNoReplyNeeded(ctx context.Context, bookingID, threadID int64, notNeeded bool) error {
	upd, err := c.mutator.SetNoReplyNeeded(ctx, bookingID, threadID, notNeeded)
	if err != nil {
		c.logger.Warn("no-reply update failed",
			zap.Int64("booking_id", bookingID),
			zap.Int64("thread_id", threadID),
			zap.Error(err))
		return err
	}
	c.logger.Info("thread updated",
		zap.Int64("booking_id", bookingID),
		zap.Int64("thread_id", threadID),
		zap.Bool("no_reply_needed", notNeeded))
	if c.onThreadUpdated != nil {
		c.onThreadUpdated(*upd)
	}
	return nil
}

// ToggleNoReplyNeeded applies the operator toggle: a current status of 0 sets
// the flag, anything else clears it.
func (c *Controller) ToggleNoReplyNeeded(ctx context.Context, bookingID, threadID int64, currentStatus int) error {
	return c.SetNoReplyNeeded(ctx, bookingID, threadID, currentStatus == 0)
}

// LoadListingDetails returns the names of the rooms booked.
func (c *Controller) LoadListingDetails(ctx context.Context, bookingID int64) ([]string, error) {
	if c.bookings == nil {
		return nil, newError(KindCollaboratorUnavailable, "could not obtain the listing information", nil)
	}
	rooms, err := c.bookings.BookingRooms(ctx, bookingID)
	if err != nil {
		return nil, newError(KindCollaboratorUnavailable, "could not obtain the listing information", err)
	}
	if len(rooms) == 0 {
		return nil, newError(KindCollaboratorUnavailable, "could not obtain the listing information", nil)
	}
	return rooms, nil
}
