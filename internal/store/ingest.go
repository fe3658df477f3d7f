package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matheus3301/guestfeed/internal/feed"
)

// IngestMessage stores an inbound message (idempotent on the thread and the
// channel's message id). The thread's last update only moves forward; its
// replied flag follows the sender of its newest message.
func (db *DB) IngestMessage(ctx context.Context, in *InboundMessage) (*IngestResult, error) {
	if err := validateInbound(in); err != nil {
		return nil, err
	}
	sender := strings.ToLower(in.SenderType)
	sent := feed.FormatTime(in.SentAt)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO threads (booking_id, ota_booking_id, channel, channel_logo, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(booking_id, channel) DO UPDATE SET
			ota_booking_id = CASE WHEN excluded.ota_booking_id != '' THEN excluded.ota_booking_id ELSE threads.ota_booking_id END,
			channel_logo = CASE WHEN excluded.channel_logo != '' THEN excluded.channel_logo ELSE threads.channel_logo END`,
		in.BookingID, in.ExternalBookingID, in.Channel, in.ChannelLogo, sent, sent)
	if err != nil {
		return nil, fmt.Errorf("upsert thread: %w", err)
	}

	res := &IngestResult{}
	var lastUpdated string
	err = tx.QueryRowContext(ctx, `
		SELECT id, last_updated FROM threads WHERE booking_id = ? AND channel = ?`,
		in.BookingID, in.Channel).Scan(&res.ThreadID, &lastUpdated)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	ins, err := tx.ExecContext(ctx, `
		INSERT INTO messages (thread_id, external_id, sender_type, sender_name, content, guest_avatar, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id, external_id) DO NOTHING`,
		res.ThreadID, in.ExternalID, sender, in.SenderName, in.Content, in.Avatar, sent)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	n, err := ins.RowsAffected()
	if err != nil {
		return nil, err
	}

	if n == 0 {
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM messages WHERE thread_id = ? AND external_id = ?`,
			res.ThreadID, in.ExternalID).Scan(&res.MessageID)
		if err != nil {
			return nil, fmt.Errorf("load duplicate message: %w", err)
		}
		return res, tx.Commit()
	}

	res.Inserted = true
	if res.MessageID, err = ins.LastInsertId(); err != nil {
		return nil, err
	}
	if sent >= lastUpdated {
		_, err = tx.ExecContext(ctx, `
			UPDATE threads SET last_updated = ?, replied = ? WHERE id = ?`,
			sent, sender != feed.SenderGuest, res.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("advance thread: %w", err)
		}
	}
	return res, tx.Commit()
}

func validateInbound(in *InboundMessage) error {
	switch {
	case in == nil:
		return errors.New("inbound message is nil")
	case in.BookingID <= 0:
		return fmt.Errorf("inbound message %q: booking id is required", in.ExternalID)
	case in.ExternalID == "":
		return errors.New("inbound message: message id is required")
	case in.SenderType == "":
		return fmt.Errorf("inbound message %q: sender type is required", in.ExternalID)
	case in.SentAt.IsZero():
		return fmt.Errorf("inbound message %q: sent at is required", in.ExternalID)
	}
	return nil
}
