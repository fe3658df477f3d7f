package feed

import (
	"strings"
	"testing"
	"time"
)

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", 95)
	tests := []struct {
		content string
		want    string
	}{
		{"", "....."},
		{"short", "short"},
		{long, strings.Repeat("é", 90) + "..."},
		{strings.Repeat("a", 90), strings.Repeat("a", 90)},
	}
	for _, tt := range tests {
		if got := (Message{Content: tt.content}).Preview(); got != tt.want {
			t.Errorf("Preview(%d runes) = %q", len([]rune(tt.content)), got)
		}
	}
}

func TestReadState(t *testing.T) {
	read := time.Now()
	yes, no := true, false
	tests := []struct {
		name     string
		msg      Message
		unread   bool
		awaiting bool
	}{
		{"unread guest", Message{SenderType: "Guest"}, true, false},
		{"unread host", Message{SenderType: "host"}, false, false},
		{"read not replied", Message{SenderType: "guest", ReadAt: &read, Replied: &no}, false, true},
		{"read replied", Message{SenderType: "guest", ReadAt: &read, Replied: &yes}, false, false},
		{"legacy row", Message{SenderType: "guest", ReadAt: &read}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Unread(); got != tt.unread {
				t.Errorf("Unread() = %v", got)
			}
			if got := tt.msg.AwaitingReply(); got != tt.awaiting {
				t.Errorf("AwaitingReply() = %v", got)
			}
		})
	}
}

func TestGuestDisplayNameAndAvatar(t *testing.T) {
	if got := (Message{}).GuestDisplayName(); got != "Guest" {
		t.Errorf("empty name = %q", got)
	}
	if got := (Message{GuestFirstName: "Ana"}).GuestDisplayName(); got != "Ana" {
		t.Errorf("first only = %q", got)
	}
	if got := (Message{GuestFirstName: "Ana", GuestLastName: "Smith"}).GuestDisplayName(); got != "Ana Smith" {
		t.Errorf("full = %q", got)
	}

	m := Message{ChannelLogo: "logo.png"}
	if m.Avatar() != "logo.png" {
		t.Errorf("logo fallback = %q", m.Avatar())
	}
	m.GuestPicture = "pic.jpg"
	if m.Avatar() != "pic.jpg" {
		t.Errorf("picture = %q", m.Avatar())
	}
	m.GuestAvatar = "avatar.jpg"
	if m.Avatar() != "avatar.jpg" {
		t.Errorf("avatar = %q", m.Avatar())
	}
}

func TestBadge(t *testing.T) {
	now := ts("2024-03-10 12:00:00")
	tests := []struct {
		status   string
		checkout time.Time
		want     Badge
	}{
		{"", time.Time{}, BadgeNone},
		{"standby", time.Time{}, BadgeStandby},
		{"cancelled", ts("2024-01-01 00:00:00"), BadgeCancelled},
		{"confirmed", ts("2024-03-12 10:00:00"), BadgeConfirmed},
		{"confirmed", ts("2024-03-09 10:00:00"), BadgeCheckedOut},
	}
	for _, tt := range tests {
		if got := (Message{BookingStatus: tt.status, CheckOut: tt.checkout}).Badge(now); got != tt.want {
			t.Errorf("Badge(%q, %v) = %q, want %q", tt.status, tt.checkout, got, tt.want)
		}
	}
}
