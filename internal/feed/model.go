package feed

import (
	"strings"
	"time"
)

// TimeLayout is the wire and storage format of message timestamps. Values are UTC.
const TimeLayout = "2006-01-02 15:04:05"

// DirectChannelName is the channel name of bookings made on the property's own engine.
const DirectChannelName = "vikbooking"

// DefaultPageLength is used when a cursor carries no positive page length.
const DefaultPageLength = 6

// Sender values accepted by the filter and stored on messages.
const (
	SenderGuest = "guest"
	SenderHost  = "host"
)

// Message is one feed entry: a conversation's representative message joined
// with the thread and booking data needed to render it.
type Message struct {
	ID                int64
	ThreadID          int64
	BookingID         int64
	ExternalBookingID string
	Channel           string
	SenderType        string
	SenderName        string
	Content           string
	ReadAt            *time.Time
	Replied           *bool
	NoReplyNeeded     bool
	LastUpdated       time.Time

	GuestFirstName string
	GuestLastName  string
	GuestAvatar    string
	GuestPicture   string
	ChannelLogo    string
	BookingStatus  string
	CheckIn        time.Time
	CheckOut       time.Time
}

// FromGuest reports whether the message was written by the guest.
func (m Message) FromGuest() bool {
	return strings.EqualFold(m.SenderType, SenderGuest)
}

// Booking is the subset of reservation data the controller needs.
type Booking struct {
	ID         int64
	ExternalID string
	Channel    string
	Status     string
	CheckIn    time.Time
	CheckOut   time.Time
	FirstName  string
	LastName   string
	Picture    string
}

// FormatTime renders t in TimeLayout, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a TimeLayout value as UTC. An empty string yields the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}
