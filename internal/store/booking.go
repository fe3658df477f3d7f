package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/matheus3301/guestfeed/internal/feed"
)

// UpsertBooking inserts or replaces a booking and its booked rooms.
func (db *DB) UpsertBooking(ctx context.Context, b *feed.Booking, rooms []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (id, ota_id, channel, status, checkin, checkout, first_name, last_name, pic, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ota_id = excluded.ota_id,
			channel = excluded.channel,
			status = excluded.status,
			checkin = excluded.checkin,
			checkout = excluded.checkout,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			pic = excluded.pic,
			updated_at = excluded.updated_at`,
		b.ID, b.ExternalID, b.Channel, b.Status, unixSeconds(b.CheckIn), unixSeconds(b.CheckOut),
		b.FirstName, b.LastName, b.Picture, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert booking %d: %w", b.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_rooms WHERE booking_id = ?`, b.ID); err != nil {
		return err
	}
	for i, name := range rooms {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO booking_rooms (booking_id, position, room_name) VALUES (?, ?, ?)`,
			b.ID, i, name); err != nil {
			return fmt.Errorf("insert room %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// Booking returns a booking by id, or nil if it does not exist.
func (db *DB) Booking(ctx context.Context, id int64) (*feed.Booking, error) {
	var (
		b                 feed.Booking
		checkIn, checkOut int64
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, ota_id, channel, status, checkin, checkout, first_name, last_name, pic
		FROM bookings WHERE id = ?`, id).
		Scan(&b.ID, &b.ExternalID, &b.Channel, &b.Status, &checkIn, &checkOut, &b.FirstName, &b.LastName, &b.Picture)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.CheckIn = unixTime(checkIn)
	b.CheckOut = unixTime(checkOut)
	return &b, nil
}

// BookingRooms returns the booked room names in booking order.
func (db *DB) BookingRooms(ctx context.Context, id int64) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT room_name FROM booking_rooms
		WHERE booking_id = ?
		ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rooms []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		rooms = append(rooms, name)
	}
	return rooms, rows.Err()
}

func unixSeconds(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
