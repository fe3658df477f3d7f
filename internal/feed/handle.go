package feed

import (
	"strconv"
	"strings"
)

// Handle asks for one conversation to be present in a loaded window.
// Numeric ids name a native booking; anything else is a channel-side id.
type Handle struct {
	BookingID         int64
	ExternalBookingID string
	raw               string
}

// ParseHandle builds a Handle from a raw conversation id. ok is false when raw is blank.
func ParseHandle(raw string) (h Handle, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Handle{}, false
	}
	h.raw = raw
	h.ExternalBookingID = raw
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		h.BookingID = id
	}
	return h, true
}

// ID is the identifier echoed back as the bubbled id.
func (h Handle) ID() string {
	if h.raw != "" {
		return h.raw
	}
	if h.BookingID > 0 {
		return strconv.FormatInt(h.BookingID, 10)
	}
	return h.ExternalBookingID
}

// IsZero reports whether the handle names nothing.
func (h Handle) IsZero() bool {
	return h.BookingID == 0 && h.ExternalBookingID == ""
}

// Matches reports whether m belongs to the conversation: same native booking,
// or same channel-side id on a non-direct channel.
func (h Handle) Matches(m Message) bool {
	if h.BookingID > 0 && m.BookingID == h.BookingID {
		return true
	}
	return h.ExternalBookingID != "" &&
		m.ExternalBookingID == h.ExternalBookingID &&
		!strings.EqualFold(m.Channel, DirectChannelName)
}
