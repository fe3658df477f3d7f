package bus

import "time"

// Event kinds. Subscribers filter by prefix, e.g. "inbound.".
const (
	KindInboundMessage  = "inbound.message"
	KindInboundBatch    = "inbound.batch"
	KindInboundBooking  = "inbound.booking"
	KindMessageUpserted = "message.upserted"
	KindBatchIngested   = "message.batch_ingested"
	KindThreadUpdated   = "thread.no_reply_changed"
)

// Event is a domain event published on the bus. Publish assigns ID and
// Timestamp when they are unset.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}
