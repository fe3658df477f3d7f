package store

import (
	"context"

	"github.com/matheus3301/guestfeed/internal/feed"
)

// BookingGuestThreads returns the newest message of every thread of the
// booking named by h: its native id, or its channel-side id on a non-direct channel.
func (db *DB) BookingGuestThreads(ctx context.Context, h feed.Handle) ([]feed.Message, error) {
	rows, err := db.QueryContext(ctx, selectMessage("t.last_updated")+latestPerThread+`
		WHERE t.booking_id = ?
			OR (? != '' AND t.ota_booking_id = ? AND LOWER(t.channel) != ?)
		ORDER BY t.last_updated DESC, t.id DESC`,
		h.BookingID, h.ExternalBookingID, h.ExternalBookingID, feed.DirectChannelName)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// SetThreadNoReplyNeeded updates the thread matching both ids and returns the
// number of rows matched.
func (db *DB) SetThreadNoReplyNeeded(ctx context.Context, threadID, bookingID int64, notNeeded bool) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE threads SET no_reply_needed = ?
		WHERE id = ? AND booking_id = ?`, notNeeded, threadID, bookingID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
