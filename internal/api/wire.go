package api

import (
	"encoding/json"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/matheus3301/guestfeed/internal/feed"
)

// LoadMessagesRequest asks for one window of the feed. LastSeen carries the
// caller's watch baseline so it survives paging.
type LoadMessagesRequest struct {
	Filters  feed.RawFilter `json:"filters"`
	Offset   int            `json:"offset"`
	Length   int            `json:"length"`
	LastSeen string         `json:"last_seen_timestamp,omitempty"`
	BidConvo string         `json:"bid_convo,omitempty"`
}

type LoadMessagesResponse struct {
	Page            []Message `json:"page"`
	TotalOnPage     int       `json:"total_on_page"`
	NextOffset      int       `json:"next_offset"`
	LatestTimestamp string    `json:"latest_timestamp,omitempty"`
	BubbledID       string    `json:"bubbled_id,omitempty"`
}

// Message is the wire form of feed.Message plus its display derivations.
type Message struct {
	ID                int64  `json:"id,string"`
	ThreadID          int64  `json:"thread_id,string"`
	BookingID         int64  `json:"booking_id,string"`
	ExternalBookingID string `json:"external_booking_id,omitempty"`
	Channel           string `json:"channel"`
	ChannelKind       string `json:"channel_kind"`
	SenderType        string `json:"sender_type"`
	SenderName        string `json:"sender_name,omitempty"`
	Content           string `json:"content"`
	Preview           string `json:"preview"`
	ReadAt            string `json:"read_at,omitempty"`
	Replied           *bool  `json:"replied,omitempty"`
	NoReplyNeeded     bool   `json:"no_reply_needed"`
	LastUpdated       string `json:"last_updated"`
	Unread            bool   `json:"unread"`
	AwaitingReply     bool   `json:"awaiting_reply"`
	GuestName         string `json:"guest_name"`
	Avatar            string `json:"avatar,omitempty"`
	Badge             string `json:"badge,omitempty"`
	CheckIn           string `json:"checkin,omitempty"`
	CheckOut          string `json:"checkout,omitempty"`
}

type WatchMessagesRequest struct {
	LastSeen string `json:"last_seen_timestamp"`
}

// WatchMessagesResponse reports Changed as 0 or 1.
type WatchMessagesResponse struct {
	Changed int `json:"changed"`
}

type RenderChatRequest struct {
	BookingID int64 `json:"booking_id,string"`
}

type RenderChatResponse struct {
	Chat string `json:"chat"`
}

// NoReplyRequest toggles the flag: a CurrentStatus of 0 sets it.
type NoReplyRequest struct {
	BookingID     int64 `json:"booking_id,string"`
	ThreadID      int64 `json:"thread_id,string"`
	CurrentStatus int   `json:"current_status"`
}

type NoReplyResponse struct {
	Success int `json:"success"`
}

type ListingsRequest struct {
	BookingID int64 `json:"booking_id,string"`
}

type ListingsResponse struct {
	Listings []string `json:"listings"`
}

type StatusRequest struct{}

type StatusResponse struct {
	Workspace     string   `json:"workspace"`
	Available     bool     `json:"available"`
	Reason        string   `json:"reason,omitempty"`
	Capabilities  []string `json:"capabilities"`
	StoreVersion  uint     `json:"store_version"`
	PageLength    int      `json:"page_length"`
	WatchInterval string   `json:"watch_interval,omitempty"`
	UptimeMs      int64    `json:"uptime_ms"`
}

// WatchEventsRequest selects bus events by kind prefix; empty means all
// message and thread events.
type WatchEventsRequest struct {
	Prefix string `json:"prefix,omitempty"`
}

type Event struct {
	ID        string         `json:"id,string"`
	Kind      string         `json:"kind"`
	Timestamp string         `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Encode converts a DTO to its Struct form.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode fills the DTO v from s.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// FromMessage builds the wire message; now decides the checked-out badge.
func FromMessage(m feed.Message, now time.Time) Message {
	out := Message{
		ID:                m.ID,
		ThreadID:          m.ThreadID,
		BookingID:         m.BookingID,
		ExternalBookingID: m.ExternalBookingID,
		Channel:           m.Channel,
		ChannelKind:       feed.ClassifyChannel(m.Channel, m.ExternalBookingID).String(),
		SenderType:        m.SenderType,
		SenderName:        m.SenderName,
		Content:           m.Content,
		Preview:           m.Preview(),
		Replied:           m.Replied,
		NoReplyNeeded:     m.NoReplyNeeded,
		LastUpdated:       feed.FormatTime(m.LastUpdated),
		Unread:            m.Unread(),
		AwaitingReply:     m.AwaitingReply(),
		GuestName:         m.GuestDisplayName(),
		Avatar:            m.Avatar(),
		Badge:             string(m.Badge(now)),
		CheckIn:           feed.FormatTime(m.CheckIn),
		CheckOut:          feed.FormatTime(m.CheckOut),
	}
	if m.ReadAt != nil {
		out.ReadAt = feed.FormatTime(*m.ReadAt)
	}
	return out
}

func payloadMap(v any) map[string]any {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
