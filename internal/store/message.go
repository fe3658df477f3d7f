package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/matheus3301/guestfeed/internal/feed"
)

// selectMessage returns the column list shared by every feed query. tsExpr is
// the column reported as the message's last update.
func selectMessage(tsExpr string) string {
	return `
		SELECT m.id, t.id, t.booking_id, t.ota_booking_id, t.channel,
			m.sender_type, m.sender_name, m.content, m.read_at,
			t.replied, t.no_reply_needed, ` + tsExpr + `,
			COALESCE(b.first_name, ''), COALESCE(b.last_name, ''),
			m.guest_avatar, COALESCE(b.pic, ''), t.channel_logo,
			COALESCE(b.status, ''), COALESCE(b.checkin, 0), COALESCE(b.checkout, 0)`
}

// latestPerThread joins each thread to its newest message.
const latestPerThread = `
		FROM threads t
		JOIN messages m ON m.id = (
			SELECT mm.id FROM messages mm
			WHERE mm.thread_id = t.id
			ORDER BY mm.created_at DESC, mm.id DESC
			LIMIT 1)
		LEFT JOIN bookings b ON b.id = t.booking_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(s rowScanner) (feed.Message, error) {
	var (
		m                 feed.Message
		readAt            sql.NullString
		replied           sql.NullBool
		updated           string
		checkIn, checkOut int64
	)
	if err := s.Scan(
		&m.ID, &m.ThreadID, &m.BookingID, &m.ExternalBookingID, &m.Channel,
		&m.SenderType, &m.SenderName, &m.Content, &readAt,
		&replied, &m.NoReplyNeeded, &updated,
		&m.GuestFirstName, &m.GuestLastName,
		&m.GuestAvatar, &m.GuestPicture, &m.ChannelLogo,
		&m.BookingStatus, &checkIn, &checkOut,
	); err != nil {
		return m, err
	}

	var err error
	if m.LastUpdated, err = feed.ParseTime(updated); err != nil {
		return m, fmt.Errorf("message %d: last updated: %w", m.ID, err)
	}
	if readAt.Valid && readAt.String != "" {
		t, err := feed.ParseTime(readAt.String)
		if err != nil {
			return m, fmt.Errorf("message %d: read at: %w", m.ID, err)
		}
		m.ReadAt = &t
	}
	if replied.Valid {
		m.Replied = &replied.Bool
	}
	m.CheckIn = unixTime(checkIn)
	m.CheckOut = unixTime(checkOut)
	return m, nil
}

func collectMessages(rows *sql.Rows) ([]feed.Message, error) {
	defer func() { _ = rows.Close() }()

	var msgs []feed.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func window(offset, limit int) (int, int) {
	if limit <= 0 {
		limit = feed.DefaultPageLength
	}
	return max(offset, 0), limit
}

// LatestFromGuests returns the newest message of each thread, most recently
// updated thread first.
func (db *DB) LatestFromGuests(ctx context.Context, offset, limit int) ([]feed.Message, error) {
	offset, limit = window(offset, limit)
	rows, err := db.QueryContext(ctx, selectMessage("t.last_updated")+latestPerThread+`
		ORDER BY t.last_updated DESC, t.id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}
