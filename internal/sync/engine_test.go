package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/matheus3301/guestfeed/internal/bus"
	"github.com/matheus3301/guestfeed/internal/metrics"
	"github.com/matheus3301/guestfeed/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func inbound(id string, booking int64, sent string) *store.InboundMessage {
	at, err := time.Parse("2006-01-02 15:04:05", sent)
	if err != nil {
		panic(err)
	}
	return &store.InboundMessage{
		ExternalID: id, BookingID: booking, Channel: "vikbooking",
		SenderType: "guest", Content: "hello " + id, SentAt: at,
	}
}

func TestEngineIngestMessage(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil, nil)

	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	if err := e.IngestMessage(context.Background(), inbound("m1", 42, "2024-03-01 10:00:00")); err != nil {
		t.Fatal(err)
	}

	msgs, err := db.LatestFromGuests(context.Background(), 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello m1" || msgs[0].BookingID != 42 {
		t.Errorf("got %+v, want one message for booking 42", msgs)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindMessageUpserted {
			t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindMessageUpserted)
		}
		payload := evt.Payload.(MessageUpserted)
		if payload.BookingID != 42 || payload.ThreadID == 0 {
			t.Errorf("payload = %v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message.upserted event")
	}
}

func TestEngineIngestMessageIdempotent(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	m := metrics.New(prometheus.NewRegistry())
	e := NewEngine(db, b, nil, m)

	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	msg := inbound("m1", 1, "2024-03-01 10:00:00")
	if err := e.IngestMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	<-ch
	if err := e.IngestMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		t.Errorf("duplicate announced: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("got %d messages, want 1 (idempotent)", count)
	}
}

func TestEngineIngestBatch(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil, nil)

	ch, unsub := b.Subscribe("message.batch", 10)
	defer unsub()

	msgs := []*store.InboundMessage{
		inbound("m1", 1, "2024-03-01 10:00:00"),
		inbound("m2", 1, "2024-03-01 10:05:00"),
		inbound("m3", 2, "2024-03-01 10:10:00"),
	}
	n, err := e.IngestBatch(context.Background(), msgs)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("inserted = %d, want 3", n)
	}
	if n, _ := e.IngestBatch(context.Background(), msgs); n != 0 {
		t.Errorf("second batch inserted = %d, want 0", n)
	}

	threads, _ := db.LatestFromGuests(context.Background(), 0, 10)
	if len(threads) != 2 {
		t.Errorf("got %d threads, want 2", len(threads))
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindBatchIngested {
			t.Errorf("event kind = %q", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for batch event")
	}
}

func TestEngineIngestBatchStopsOnInvalid(t *testing.T) {
	db := testDB(t)
	e := NewEngine(db, bus.New(), nil, nil)

	bad := inbound("", 1, "2024-03-01 10:00:00")
	n, err := e.IngestBatch(context.Background(), []*store.InboundMessage{inbound("ok", 1, "2024-03-01 09:00:00"), bad})
	if err == nil {
		t.Fatal("IngestBatch() should fail on a message without id")
	}
	if n != 1 {
		t.Errorf("inserted before failure = %d, want 1", n)
	}
}

// TestEngineBusSubscription checks the consumer -> bus -> store path.
func TestEngineBusSubscription(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	logger, _ := zap.NewDevelopment()
	e := NewEngine(db, b, logger, nil)

	e.Start(context.Background())
	defer e.Stop()

	b.Publish(bus.Event{
		Kind: bus.KindInboundBooking,
		Payload: &store.BookingRecord{
			ID: 7, Channel: "airbnbapi_Airbnb", ExternalID: "HM7",
			FirstName: "Ana", Rooms: []string{"Loft"},
		},
	})
	b.Publish(bus.Event{Kind: bus.KindInboundMessage, Payload: inbound("bm1", 7, "2024-03-01 10:00:00")})
	b.Publish(bus.Event{
		Kind: bus.KindInboundBatch,
		Payload: []*store.InboundMessage{
			inbound("hm1", 8, "2024-02-01 10:00:00"),
			inbound("hm2", 8, "2024-02-01 11:00:00"),
		},
	})

	ctx := context.Background()
	deadline := time.Now().Add(2 * time.Second)
	for {
		msgs, err := db.LatestFromGuests(ctx, 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(msgs) == 2 {
			if msgs[0].GuestFirstName != "Ana" {
				t.Errorf("booking data not joined: %+v", msgs[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("got %d threads, want 2 (bus subscription)", len(msgs))
		}
		time.Sleep(20 * time.Millisecond)
	}

	rooms, err := db.BookingRooms(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0] != "Loft" {
		t.Errorf("rooms = %v", rooms)
	}
}
