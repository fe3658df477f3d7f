package sync

import (
	"context"
	"fmt"

	"github.com/matheus3301/guestfeed/internal/bus"
	"github.com/matheus3301/guestfeed/internal/metrics"
	"github.com/matheus3301/guestfeed/internal/store"
	"go.uber.org/zap"
)

// Engine ingests inbound messages and bookings into the store.
// It subscribes to "inbound." events on the bus.
type Engine struct {
	db      *store.DB
	bus     *bus.Bus
	logger  *zap.Logger
	metrics *metrics.Feed
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewEngine creates a new sync engine.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger, m *metrics.Feed) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:      db,
		bus:     b,
		logger:  logger,
		metrics: m,
	}
}

// Start subscribes to inbound events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	ch, unsub := e.bus.Subscribe("inbound.", 256)

	go func() {
		defer close(e.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(ctx, evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine and waits for the event in flight.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
}

func (e *Engine) handleEvent(ctx context.Context, evt bus.Event) {
	switch evt.Kind {
	case bus.KindInboundMessage:
		msg, ok := evt.Payload.(*store.InboundMessage)
		if !ok {
			return
		}
		if err := e.IngestMessage(ctx, msg); err != nil {
			e.logger.Error("failed to ingest message", zap.Error(err), zap.String("message_id", msg.ExternalID))
		}
	case bus.KindInboundBatch:
		msgs, ok := evt.Payload.([]*store.InboundMessage)
		if !ok {
			return
		}
		n, err := e.IngestBatch(ctx, msgs)
		if err != nil {
			e.logger.Error("failed to ingest batch", zap.Error(err), zap.Int("count", len(msgs)))
		} else {
			e.logger.Info("batch ingested", zap.Int("messages", len(msgs)), zap.Int("inserted", n))
		}
	case bus.KindInboundBooking:
		rec, ok := evt.Payload.(*store.BookingRecord)
		if !ok {
			return
		}
		if err := e.db.UpsertBooking(ctx, rec.Booking(), rec.Rooms); err != nil {
			e.logger.Error("failed to store booking", zap.Error(err), zap.Int64("booking_id", rec.ID))
		}
	}
}

// MessageUpserted is the payload of a message.upserted event. Ids travel as
// strings so clients decoding JSON numbers keep full precision.
type MessageUpserted struct {
	BookingID int64 `json:"booking_id,string"`
	ThreadID  int64 `json:"thread_id,string"`
	MessageID int64 `json:"message_id,string"`
}

// IngestMessage stores one message (idempotent) and announces new ones.
func (e *Engine) IngestMessage(ctx context.Context, msg *store.InboundMessage) error {
	res, err := e.db.IngestMessage(ctx, msg)
	if err != nil {
		e.metrics.Ingested("failed")
		return fmt.Errorf("ingest message: %w", err)
	}
	if !res.Inserted {
		e.metrics.Ingested("duplicate")
		return nil
	}
	e.metrics.Ingested("inserted")

	e.bus.Publish(bus.Event{
		Kind: bus.KindMessageUpserted,
		Payload: MessageUpserted{
			BookingID: msg.BookingID,
			ThreadID:  res.ThreadID,
			MessageID: res.MessageID,
		},
	})
	return nil
}

// IngestBatch stores every message of a backfill and reports how many were new.
// It stops at the first failure.
func (e *Engine) IngestBatch(ctx context.Context, msgs []*store.InboundMessage) (int, error) {
	inserted := 0
	for _, m := range msgs {
		res, err := e.db.IngestMessage(ctx, m)
		if err != nil {
			e.metrics.Ingested("failed")
			return inserted, fmt.Errorf("ingest batch: %w", err)
		}
		if res.Inserted {
			inserted++
			e.metrics.Ingested("inserted")
		} else {
			e.metrics.Ingested("duplicate")
		}
	}

	e.bus.Publish(bus.Event{
		Kind: bus.KindBatchIngested,
		Payload: map[string]int{
			"messages_count": len(msgs),
			"inserted_count": inserted,
		},
	})
	return inserted, nil
}
