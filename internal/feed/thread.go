package feed

import "context"

// ThreadUpdate describes an applied no-reply-needed change.
type ThreadUpdate struct {
	ThreadID      int64 `json:"thread_id,string"`
	BookingID     int64 `json:"booking_id,string"`
	NoReplyNeeded bool  `json:"no_reply_needed"`
}

// Mutator flips the no-reply-needed flag of one thread.
type Mutator struct {
	bookings BookingDirectory
	updater  ThreadUpdater
}

// NewMutator discovers the update capability on store once.
func NewMutator(store MessageStore, bookings BookingDirectory) *Mutator {
	m := &Mutator{bookings: bookings}
	if u, ok := store.(ThreadUpdater); ok {
		m.updater = u
	}
	return m
}

// SetNoReplyNeeded updates the thread identified by both threadID and bookingID.
func (m *Mutator) SetNoReplyNeeded(ctx context.Context, bookingID, threadID int64, notNeeded bool) (*ThreadUpdate, error) {
	if m.updater == nil || m.bookings == nil {
		return nil, newError(KindCollaboratorUnavailable, "thread updates are not supported by the message store", nil)
	}
	if threadID <= 0 {
		return nil, newError(KindNotFound, "thread not found", nil)
	}
	b, err := m.bookings.Booking(ctx, bookingID)
	if err != nil {
		return nil, newError(KindCollaboratorUnavailable, "booking lookup failed", err)
	}
	if b == nil {
		return nil, newError(KindNotFound, "booking not found", nil)
	}

	n, err := m.updater.SetThreadNoReplyNeeded(ctx, threadID, bookingID, notNeeded)
	if err != nil {
		return nil, newError(KindUpdateFailed, "could not update the thread", err)
	}
	if n == 0 {
		return nil, newError(KindUpdateFailed, "could not update the thread", nil)
	}
	return &ThreadUpdate{ThreadID: threadID, BookingID: bookingID, NoReplyNeeded: notNeeded}, nil
}
