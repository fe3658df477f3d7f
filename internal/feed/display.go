package feed

import (
	"strings"
	"time"
)

const previewRunes = 90

// Preview returns the content shortened for list rows.
func (m Message) Preview() string {
	if m.Content == "" {
		return "....."
	}
	r := []rune(m.Content)
	if len(r) > previewRunes {
		return string(r[:previewRunes]) + "..."
	}
	return m.Content
}

// Unread reports a guest message nobody has opened yet.
func (m Message) Unread() bool {
	return m.ReadAt == nil && m.FromGuest()
}

// AwaitingReply reports a read guest message explicitly marked as not replied.
// Legacy rows without the flag count as replied.
func (m Message) AwaitingReply() bool {
	if m.Unread() || !m.FromGuest() || m.Replied == nil {
		return false
	}
	return !*m.Replied
}

// GuestDisplayName joins the guest name parts, falling back to "Guest".
func (m Message) GuestDisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(m.GuestFirstName) + " " + strings.TrimSpace(m.GuestLastName))
	if name == "" {
		return "Guest"
	}
	return name
}

// Avatar picks the best available image URL.
func (m Message) Avatar() string {
	switch {
	case m.GuestAvatar != "":
		return m.GuestAvatar
	case m.GuestPicture != "":
		return m.GuestPicture
	default:
		return m.ChannelLogo
	}
}

// Badge is the booking status label shown next to a conversation.
type Badge string

const (
	BadgeNone       Badge = ""
	BadgeStandby    Badge = "Standby"
	BadgeCancelled  Badge = "Cancelled"
	BadgeConfirmed  Badge = "Confirmed"
	BadgeCheckedOut Badge = "Checked out"
)

// Badge derives the status label at time now.
func (m Message) Badge(now time.Time) Badge {
	switch strings.ToLower(m.BookingStatus) {
	case "":
		return BadgeNone
	case "standby":
		return BadgeStandby
	case "cancelled":
		return BadgeCancelled
	}
	if !m.CheckOut.IsZero() && m.CheckOut.Before(now) {
		return BadgeCheckedOut
	}
	return BadgeConfirmed
}
