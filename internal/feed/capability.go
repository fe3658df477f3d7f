package feed

import "context"

// MessageStore is the required capability: the unfiltered latest window,
// ordered by last update descending.
type MessageStore interface {
	LatestFromGuests(ctx context.Context, offset, limit int) ([]Message, error)
}

// FilteredSearcher is the optional filtered retrieval path.
type FilteredSearcher interface {
	SearchMessages(ctx context.Context, f Filter, offset, limit int) ([]Message, error)
}

// ThreadFetcher returns the representative messages of every thread of a booking.
type ThreadFetcher interface {
	BookingGuestThreads(ctx context.Context, h Handle) ([]Message, error)
}

// ThreadUpdater sets the no-reply-needed flag on the thread matching both ids
// and reports the number of rows it matched.
type ThreadUpdater interface {
	SetThreadNoReplyNeeded(ctx context.Context, threadID, bookingID int64, notNeeded bool) (int64, error)
}

// ChatRenderer renders one booking's conversation on the given channel.
type ChatRenderer interface {
	RenderChat(ctx context.Context, bookingID int64, channel string) (string, error)
}

// Versioned exposes the schema version of the store.
type Versioned interface {
	SchemaVersion() (uint, error)
}

// BookingDirectory resolves bookings. Booking returns nil, nil for unknown ids.
type BookingDirectory interface {
	Booking(ctx context.Context, id int64) (*Booking, error)
	BookingRooms(ctx context.Context, id int64) ([]string, error)
}

// Capability names reported by Controller.Capabilities.
const (
	CapLatest        = "latest"
	CapSearch        = "search"
	CapThreadFetch   = "thread_fetch"
	CapThreadUpdate  = "thread_update"
	CapChatRender    = "chat_render"
	CapBookings      = "bookings"
	CapSchemaVersion = "schema_version"
)
