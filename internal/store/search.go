package store

import (
	"context"
	"strings"

	"github.com/matheus3301/guestfeed/internal/feed"
)

// SearchMessages returns individual messages matching every populated field
// of f, newest first.
func (db *DB) SearchMessages(ctx context.Context, f feed.Filter, offset, limit int) ([]feed.Message, error) {
	offset, limit = window(offset, limit)

	q := selectMessage("m.created_at") + `
		FROM messages m
		JOIN threads t ON t.id = m.thread_id
		LEFT JOIN bookings b ON b.id = t.booking_id
		WHERE 1 = 1`
	var args []any

	if f.GuestName != "" {
		pattern := likePattern(f.GuestName)
		q += ` AND (TRIM(COALESCE(b.first_name, '') || ' ' || COALESCE(b.last_name, '')) LIKE ? ESCAPE '\'
			OR (m.sender_type = 'guest' AND m.sender_name LIKE ? ESCAPE '\'))`
		args = append(args, pattern, pattern)
	}
	if f.MessageContains != "" {
		q += ` AND m.content LIKE ? ESCAPE '\'`
		args = append(args, likePattern(f.MessageContains))
	}
	switch f.Sender {
	case feed.SenderGuest:
		q += ` AND m.sender_type = 'guest'`
	case feed.SenderHost:
		q += ` AND m.sender_type != 'guest'`
	}
	if !f.FromUTC.IsZero() {
		q += ` AND m.created_at >= ?`
		args = append(args, feed.FormatTime(f.FromUTC))
	}
	if !f.ToUTC.IsZero() {
		q += ` AND m.created_at <= ?`
		args = append(args, feed.FormatTime(f.ToUTC))
	}
	q += ` ORDER BY m.created_at DESC, m.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
