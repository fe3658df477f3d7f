package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matheus3301/guestfeed/internal/bus"
	"github.com/matheus3301/guestfeed/internal/store"
)

// Event types carried in Meta.Type.
const (
	TypeGuestMessage  = "guest.message.v1"
	TypeBookingUpdate = "booking.updated.v1"
)

// Meta describes the event wrapped by an Envelope.
type Meta struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Time          time.Time `json:"time"`
	Producer      string    `json:"producer,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// Envelope is the wire format of every delivery.
type Envelope[T any] struct {
	Meta Meta `json:"meta"`
	Data T    `json:"data"`
}

var errEmptyBody = errors.New("empty delivery body")

// Decode turns a delivery body into the bus event it announces.
func Decode(body []byte, now time.Time) (bus.Event, error) {
	if len(body) == 0 {
		return bus.Event{}, errEmptyBody
	}
	var head Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &head); err != nil {
		return bus.Event{}, fmt.Errorf("decode envelope: %w", err)
	}
	if len(head.Data) == 0 || string(head.Data) == "null" {
		return bus.Event{}, errors.New("envelope has no data")
	}

	switch strings.ToLower(head.Meta.Type) {
	case TypeGuestMessage, "":
		var msg store.InboundMessage
		if err := json.Unmarshal(head.Data, &msg); err != nil {
			return bus.Event{}, fmt.Errorf("decode message: %w", err)
		}
		fillMessage(&msg, head.Meta, now)
		if msg.BookingID <= 0 || msg.SenderType == "" {
			return bus.Event{}, fmt.Errorf("message %s: booking id and sender type are required", msg.ExternalID)
		}
		return bus.Event{ID: head.Meta.ID, Kind: bus.KindInboundMessage, Payload: &msg}, nil

	case TypeBookingUpdate:
		var rec store.BookingRecord
		if err := json.Unmarshal(head.Data, &rec); err != nil {
			return bus.Event{}, fmt.Errorf("decode booking: %w", err)
		}
		if rec.ID <= 0 {
			return bus.Event{}, errors.New("booking id is required")
		}
		return bus.Event{ID: head.Meta.ID, Kind: bus.KindInboundBooking, Payload: &rec}, nil
	}
	return bus.Event{}, fmt.Errorf("unsupported event type %q", head.Meta.Type)
}

// fillMessage defaults the message id and send time from the envelope.
func fillMessage(msg *store.InboundMessage, meta Meta, now time.Time) {
	if msg.ExternalID == "" {
		msg.ExternalID = meta.ID
	}
	if msg.ExternalID == "" {
		msg.ExternalID = uuid.NewString()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = meta.Time
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = now
	}
	msg.SentAt = msg.SentAt.UTC()
}
