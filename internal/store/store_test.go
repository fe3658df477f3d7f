package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/guestfeed/internal/feed"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func at(s string) time.Time {
	t, err := feed.ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func ingest(t *testing.T, db *DB, in InboundMessage) *IngestResult {
	t.Helper()
	if in.SenderType == "" {
		in.SenderType = feed.SenderGuest
	}
	if in.Channel == "" {
		in.Channel = feed.DirectChannelName
	}
	res, err := db.IngestMessage(context.Background(), &in)
	if err != nil {
		t.Fatalf("IngestMessage(%s) error = %v", in.ExternalID, err)
	}
	return res
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate, so a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Errorf("SchemaVersion() = %d, want 1", v)
	}
}

func TestSchemaVersionUnmigrated(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "raw.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.SchemaVersion(); err == nil {
		t.Error("SchemaVersion() on an unmigrated db should fail")
	}
}

func TestMigrateSchemaHasRequiredColumns(t *testing.T) {
	db := testDB(t)

	requiredOps := []struct {
		desc  string
		query string
		args  []any
	}{
		{"insert booking", "INSERT INTO bookings (id, ota_id, channel, status, checkin, checkout, first_name, last_name, pic) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", []any{1, "HM1", "airbnbapi", "confirmed", 0, 0, "Ana", "Smith", ""}},
		{"insert room", "INSERT INTO booking_rooms (booking_id, position, room_name) VALUES (?, ?, ?)", []any{1, 0, "Suite"}},
		{"insert thread", "INSERT INTO threads (booking_id, ota_booking_id, channel, no_reply_needed, replied, last_updated, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)", []any{1, "HM1", "airbnbapi", 0, nil, "2024-03-01 10:00:00", "2024-03-01 10:00:00"}},
		{"insert message", "INSERT INTO messages (thread_id, external_id, sender_type, sender_name, content, guest_avatar, read_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", []any{1, "m1", "guest", "Ana", "hello", "", nil, "2024-03-01 10:00:00"}},
	}

	for _, op := range requiredOps {
		t.Run(op.desc, func(t *testing.T) {
			if _, err := db.Exec(op.query, op.args...); err != nil {
				t.Fatalf("%s failed: %v", op.desc, err)
			}
		})
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	db := testDB(t)

	in := InboundMessage{ExternalID: "m1", BookingID: 42, Content: "hello", SentAt: at("2024-03-01 10:00:00")}
	first := ingest(t, db, in)
	if !first.Inserted {
		t.Fatal("first ingest should insert")
	}

	in.Content = "hello again"
	second := ingest(t, db, in)
	if second.Inserted {
		t.Error("duplicate ingest should not insert")
	}
	if second.MessageID != first.MessageID || second.ThreadID != first.ThreadID {
		t.Errorf("duplicate resolved to %+v, want %+v", second, first)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("got %d messages, want 1", count)
	}
}

func TestIngestRejectsIncomplete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   *InboundMessage
	}{
		{"nil", nil},
		{"no booking", &InboundMessage{ExternalID: "m", SenderType: "guest", SentAt: time.Now()}},
		{"no id", &InboundMessage{BookingID: 1, SenderType: "guest", SentAt: time.Now()}},
		{"no sender", &InboundMessage{BookingID: 1, ExternalID: "m", SentAt: time.Now()}},
		{"no time", &InboundMessage{BookingID: 1, ExternalID: "m", SenderType: "guest"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.IngestMessage(ctx, tt.in); err == nil {
				t.Error("IngestMessage() should fail")
			}
		})
	}
}

func TestLatestFromGuestsOrdering(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ingest(t, db, InboundMessage{ExternalID: "a1", BookingID: 1, Content: "first", SentAt: at("2024-03-01 08:00:00")})
	ingest(t, db, InboundMessage{ExternalID: "b1", BookingID: 2, Content: "second", SentAt: at("2024-03-01 09:00:00")})
	ingest(t, db, InboundMessage{ExternalID: "a2", BookingID: 1, SenderType: "host", Content: "reply", SentAt: at("2024-03-01 10:00:00")})
	ingest(t, db, InboundMessage{ExternalID: "c1", BookingID: 3, Channel: "airbnbapi", ExternalBookingID: "HM3", Content: "third", SentAt: at("2024-03-01 09:30:00")})

	msgs, err := db.LatestFromGuests(ctx, 0, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d threads, want 3", len(msgs))
	}
	wantOrder := []int64{1, 3, 2}
	for i, want := range wantOrder {
		if msgs[i].BookingID != want {
			t.Errorf("msgs[%d].BookingID = %d, want %d", i, msgs[i].BookingID, want)
		}
	}
	if msgs[0].Content != "reply" {
		t.Errorf("representative = %q, want the newest message", msgs[0].Content)
	}
	if feed.FormatTime(msgs[0].LastUpdated) != "2024-03-01 10:00:00" {
		t.Errorf("last updated = %v", msgs[0].LastUpdated)
	}
	if msgs[1].ExternalBookingID != "HM3" || msgs[1].Channel != "airbnbapi" {
		t.Errorf("ota thread = %+v", msgs[1])
	}

	page, err := db.LatestFromGuests(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].BookingID != 2 {
		t.Errorf("second page = %+v", page)
	}

	empty, err := db.LatestFromGuests(ctx, 30, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("out of range page has %d messages", len(empty))
	}
}

func TestIngestKeepsLastUpdatedMonotonic(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ingest(t, db, InboundMessage{ExternalID: "new", BookingID: 1, SenderType: "host", SentAt: at("2024-03-01 10:00:00")})
	ingest(t, db, InboundMessage{ExternalID: "late", BookingID: 1, SentAt: at("2024-03-01 09:00:00")})

	msgs, err := db.LatestFromGuests(ctx, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if feed.FormatTime(msgs[0].LastUpdated) != "2024-03-01 10:00:00" {
		t.Errorf("last updated moved back to %v", msgs[0].LastUpdated)
	}
	if msgs[0].Replied == nil || !*msgs[0].Replied {
		t.Error("late guest message must not flip the replied flag")
	}
}

func TestRepliedFollowsNewestSender(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ingest(t, db, InboundMessage{ExternalID: "g1", BookingID: 1, SentAt: at("2024-03-01 10:00:00")})
	msgs, err := db.LatestFromGuests(ctx, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if msgs[0].Replied == nil || *msgs[0].Replied {
		t.Fatalf("replied = %v after a guest message, want false", msgs[0].Replied)
	}
	if !msgs[0].Unread() {
		t.Error("new guest message should be unread")
	}

	ingest(t, db, InboundMessage{ExternalID: "h1", BookingID: 1, SenderType: "Host", SentAt: at("2024-03-01 10:05:00")})
	msgs, err = db.LatestFromGuests(ctx, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if msgs[0].Replied == nil || !*msgs[0].Replied {
		t.Errorf("replied = %v after a host message, want true", msgs[0].Replied)
	}
	if msgs[0].SenderType != feed.SenderHost {
		t.Errorf("sender = %q, want lowercased host", msgs[0].SenderType)
	}
}

func TestSearchMessages(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertBooking(ctx, &feed.Booking{ID: 1, FirstName: "Ana", LastName: "Smith"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertBooking(ctx, &feed.Booking{ID: 2, FirstName: "Bruno", LastName: "Lima"}, nil); err != nil {
		t.Fatal(err)
	}
	ingest(t, db, InboundMessage{ExternalID: "1", BookingID: 1, Content: "what is the wifi password?", SentAt: at("2024-01-09 23:30:00")})
	ingest(t, db, InboundMessage{ExternalID: "2", BookingID: 1, SenderType: "host", Content: "wifi is guest_100%", SentAt: at("2024-01-10 08:00:00")})
	ingest(t, db, InboundMessage{ExternalID: "3", BookingID: 2, Content: "late check-in", SentAt: at("2024-01-11 12:00:00")})

	tests := []struct {
		name   string
		filter feed.Filter
		want   []string
	}{
		{"guest name", feed.Filter{GuestName: "smith"}, []string{"wifi is guest_100%", "what is the wifi password?"}},
		{"content", feed.Filter{MessageContains: "WIFI"}, []string{"wifi is guest_100%", "what is the wifi password?"}},
		{"literal percent", feed.Filter{MessageContains: "100%"}, []string{"wifi is guest_100%"}},
		{"literal underscore", feed.Filter{MessageContains: "t_1"}, []string{"wifi is guest_100%"}},
		{"host sender", feed.Filter{Sender: feed.SenderHost}, []string{"wifi is guest_100%"}},
		{"guest sender", feed.Filter{Sender: feed.SenderGuest, GuestName: "Lima"}, []string{"late check-in"}},
		{"date range", feed.Filter{FromUTC: at("2024-01-10 00:00:00"), ToUTC: at("2024-01-10 23:59:59")}, []string{"wifi is guest_100%"}},
		{"no match", feed.Filter{GuestName: "Nobody"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := db.SearchMessages(ctx, tt.filter, 0, 10)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, m := range msgs {
				got = append(got, m.Content)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBookingGuestThreads(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ingest(t, db, InboundMessage{ExternalID: "1", BookingID: 7, SentAt: at("2024-03-01 10:00:00")})
	ingest(t, db, InboundMessage{ExternalID: "2", BookingID: 7, Channel: "airbnbapi", ExternalBookingID: "HM7", SentAt: at("2024-03-01 11:00:00")})
	ingest(t, db, InboundMessage{ExternalID: "3", BookingID: 8, ExternalBookingID: "D8", SentAt: at("2024-03-01 12:00:00")})

	byID, _ := feed.ParseHandle("7")
	msgs, err := db.BookingGuestThreads(ctx, byID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Errorf("by booking id: got %d threads, want 2", len(msgs))
	}

	byOTA, _ := feed.ParseHandle("HM7")
	msgs, err = db.BookingGuestThreads(ctx, byOTA)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Channel != "airbnbapi" {
		t.Errorf("by ota id: %+v", msgs)
	}

	direct, _ := feed.ParseHandle("D8")
	msgs, err = db.BookingGuestThreads(ctx, direct)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("direct channel external id matched %d threads", len(msgs))
	}
}

func TestSetThreadNoReplyNeeded(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	res := ingest(t, db, InboundMessage{ExternalID: "1", BookingID: 42, SentAt: at("2024-03-01 10:00:00")})

	n, err := db.SetThreadNoReplyNeeded(ctx, res.ThreadID, 42, true)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
	msgs, err := db.LatestFromGuests(ctx, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !msgs[0].NoReplyNeeded {
		t.Error("update should be visible to the next fetch")
	}

	// setting the same value again still matches the row
	if n, _ := db.SetThreadNoReplyNeeded(ctx, res.ThreadID, 42, true); n != 1 {
		t.Errorf("repeat rows = %d, want 1", n)
	}
	if n, _ := db.SetThreadNoReplyNeeded(ctx, res.ThreadID, 43, true); n != 0 {
		t.Errorf("mismatched booking rows = %d, want 0", n)
	}
}

func TestBookings(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	b := &feed.Booking{
		ID: 5, ExternalID: "HM5", Channel: "airbnbapi_Airbnb", Status: "confirmed",
		CheckIn: at("2024-03-01 14:00:00"), CheckOut: at("2024-03-05 10:00:00"),
		FirstName: "Ana", LastName: "Smith",
	}
	if err := db.UpsertBooking(ctx, b, []string{"Sea View Suite", "Garden Room"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertBooking(ctx, b, []string{"Sea View Suite"}); err != nil {
		t.Fatal(err)
	}

	got, err := db.Booking(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ExternalID != "HM5" || !got.CheckOut.Equal(b.CheckOut) {
		t.Errorf("Booking(5) = %+v", got)
	}
	rooms, err := db.BookingRooms(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0] != "Sea View Suite" {
		t.Errorf("rooms = %v", rooms)
	}

	missing, err := db.Booking(ctx, 6)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("expected nil for missing booking")
	}
}

func TestRenderChat(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ingest(t, db, InboundMessage{ExternalID: "1", BookingID: 9, SenderName: "Ana", Content: "hi", SentAt: at("2024-03-01 10:00:00")})
	ingest(t, db, InboundMessage{ExternalID: "2", BookingID: 9, SenderType: "host", SenderName: "Front desk", Content: "welcome", SentAt: at("2024-03-01 10:01:00")})
	ingest(t, db, InboundMessage{ExternalID: "3", BookingID: 9, Channel: "airbnbapi", Content: "other channel", SentAt: at("2024-03-01 10:02:00")})

	out, err := db.RenderChat(ctx, 9, feed.DirectChannelName)
	if err != nil {
		t.Fatal(err)
	}
	want := "Booking #9 on vikbooking\n" +
		"[2024-03-01 10:00:00] Ana (guest): hi\n" +
		"[2024-03-01 10:01:00] Front desk (host): welcome\n"
	if out != want {
		t.Errorf("RenderChat() =\n%s\nwant\n%s", out, want)
	}

	var unread int
	if err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE read_at IS NULL AND sender_type = 'guest'`).Scan(&unread); err != nil {
		t.Fatal(err)
	}
	if unread != 1 {
		t.Errorf("unread guest messages = %d, want 1 (only the other channel)", unread)
	}

	empty, err := db.RenderChat(ctx, 10, feed.DirectChannelName)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(empty, "No messages yet.") {
		t.Errorf("empty chat = %q", empty)
	}
}

func TestRenderChatMetaSearchBooking(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertBooking(ctx, &feed.Booking{ID: 9, FirstName: "Ana", Channel: "trivago", Status: "confirmed"}, nil); err != nil {
		t.Fatal(err)
	}
	ingest(t, db, InboundMessage{ExternalID: "1", BookingID: 9, Channel: "trivago", SenderName: "Ana", Content: "late arrival?", SentAt: at("2024-03-01 10:00:00")})

	latest, err := db.LatestFromGuests(ctx, 0, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 1 {
		t.Fatalf("feed = %d messages, want 1", len(latest))
	}

	c := feed.NewController(db, db, feed.WithMinStoreVersion(1))
	out, err := c.RenderChat(ctx, 9)
	if err != nil {
		t.Fatalf("RenderChat() error = %v", err)
	}
	want := "Booking #9 on vikbooking\n" +
		"[2024-03-01 10:00:00] Ana (guest): late arrival?\n"
	if out != want {
		t.Errorf("RenderChat() =\n%s\nwant\n%s", out, want)
	}
}

func TestStoreServesFeedController(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertBooking(ctx, &feed.Booking{ID: 42}, []string{"Loft"}); err != nil {
		t.Fatal(err)
	}
	res := ingest(t, db, InboundMessage{ExternalID: "1", BookingID: 42, SentAt: at("2024-03-01 10:00:00")})

	c := feed.NewController(db, db, feed.WithMinStoreVersion(1))
	if !c.Available() {
		t.Fatalf("controller unavailable: %s", c.Reason())
	}
	if got := len(c.Capabilities()); got != 7 {
		t.Errorf("capabilities = %v", c.Capabilities())
	}

	if err := c.ToggleNoReplyNeeded(ctx, 42, res.ThreadID, 0); err != nil {
		t.Fatalf("ToggleNoReplyNeeded() error = %v", err)
	}
	if err := c.ToggleNoReplyNeeded(ctx, 42, res.ThreadID+1, 0); err == nil {
		t.Error("unknown thread should fail")
	}

	loaded, err := c.LoadMessages(ctx, feed.LoadRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Messages) != 1 || !loaded.Messages[0].NoReplyNeeded {
		t.Errorf("loaded = %+v", loaded.Messages)
	}
	if feed.FormatTime(loaded.LatestTimestamp) != "2024-03-01 10:00:00" {
		t.Errorf("latest = %v", loaded.LatestTimestamp)
	}
}
