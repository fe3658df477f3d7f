package feed

import (
	"context"
	"fmt"
	"time"
)

func ts(s string) time.Time {
	t, err := ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

// messagesFrom builds n messages, newest first, one minute apart.
func messagesFrom(newest string, n int) []Message {
	top := ts(newest)
	out := make([]Message, n)
	for i := range out {
		out[i] = Message{
			ID:          int64(100 + i),
			ThreadID:    int64(10 + i),
			BookingID:   int64(1 + i),
			Channel:     DirectChannelName,
			SenderType:  SenderGuest,
			Content:     fmt.Sprintf("message %d", i),
			LastUpdated: top.Add(-time.Duration(i) * time.Minute),
		}
	}
	return out
}

type window struct{ offset, limit int }

// latestStore only implements the required capability.
type latestStore struct {
	latest []Message
	err    error
	calls  []window
}

func (s *latestStore) LatestFromGuests(_ context.Context, offset, limit int) ([]Message, error) {
	s.calls = append(s.calls, window{offset, limit})
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.latest) {
		return nil, nil
	}
	return s.latest[offset:min(offset+limit, len(s.latest))], nil
}

// fullStore implements every optional capability.
type fullStore struct {
	*latestStore
	found       []Message
	searchErr   error
	searches    []Filter
	threads     map[int64][]Message
	threadErr   error
	rows        map[[2]int64]bool
	updateErr   error
	chat        string
	chatChannel string
	version     uint
}

func newFullStore(latest []Message) *fullStore {
	return &fullStore{
		latestStore: &latestStore{latest: latest},
		threads:     map[int64][]Message{},
		rows:        map[[2]int64]bool{},
		version:     1,
	}
}

func (s *fullStore) SearchMessages(_ context.Context, f Filter, offset, limit int) ([]Message, error) {
	s.searches = append(s.searches, f)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if offset >= len(s.found) {
		return nil, nil
	}
	return s.found[offset:min(offset+limit, len(s.found))], nil
}

func (s *fullStore) BookingGuestThreads(_ context.Context, h Handle) ([]Message, error) {
	if s.threadErr != nil {
		return nil, s.threadErr
	}
	return s.threads[h.BookingID], nil
}

func (s *fullStore) SetThreadNoReplyNeeded(_ context.Context, threadID, bookingID int64, notNeeded bool) (int64, error) {
	if s.updateErr != nil {
		return 0, s.updateErr
	}
	key := [2]int64{threadID, bookingID}
	if _, ok := s.rows[key]; !ok {
		return 0, nil
	}
	s.rows[key] = notNeeded
	return 1, nil
}

func (s *fullStore) RenderChat(_ context.Context, bookingID int64, channel string) (string, error) {
	s.chatChannel = channel
	return fmt.Sprintf("%s #%d", s.chat, bookingID), nil
}

func (s *fullStore) SchemaVersion() (uint, error) { return s.version, nil }

type fakeBookings struct {
	bookings map[int64]*Booking
	rooms    map[int64][]string
	err      error
}

func (b *fakeBookings) Booking(_ context.Context, id int64) (*Booking, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.bookings[id], nil
}

func (b *fakeBookings) BookingRooms(_ context.Context, id int64) ([]string, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.rooms[id], nil
}
