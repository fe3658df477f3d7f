package store

import (
	"time"

	"github.com/matheus3301/guestfeed/internal/feed"
)

// InboundMessage is one guest or host message delivered by a channel.
type InboundMessage struct {
	ExternalID        string    `json:"message_id"`
	BookingID         int64     `json:"booking_id"`
	ExternalBookingID string    `json:"external_booking_id,omitempty"`
	Channel           string    `json:"channel"`
	ChannelLogo       string    `json:"channel_logo,omitempty"`
	SenderType        string    `json:"sender_type"`
	SenderName        string    `json:"sender_name,omitempty"`
	Content           string    `json:"content"`
	Avatar            string    `json:"avatar,omitempty"`
	SentAt            time.Time `json:"sent_at"`
}

// IngestResult reports where an inbound message landed.
type IngestResult struct {
	ThreadID  int64
	MessageID int64
	Inserted  bool
}

// BookingRecord is a reservation pushed by the property system.
type BookingRecord struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id,omitempty"`
	Channel    string    `json:"channel,omitempty"`
	Status     string    `json:"status,omitempty"`
	CheckIn    time.Time `json:"checkin,omitzero"`
	CheckOut   time.Time `json:"checkout,omitzero"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Picture    string    `json:"pic,omitempty"`
	Rooms      []string  `json:"rooms,omitempty"`
}

// Booking converts the record to the directory's booking type.
func (r *BookingRecord) Booking() *feed.Booking {
	return &feed.Booking{
		ID:         r.ID,
		ExternalID: r.ExternalID,
		Channel:    r.Channel,
		Status:     r.Status,
		CheckIn:    r.CheckIn,
		CheckOut:   r.CheckOut,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Picture:    r.Picture,
	}
}
