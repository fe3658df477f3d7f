package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/guestfeed/internal/feed"
)

// RenderChat renders a plain-text transcript of the booking's threads that
// open on channel, oldest message first, and marks their guest messages as
// read. A thread opens on the chat channel of its own classification, so
// meta-search threads render on the direct channel.
func (db *DB) RenderChat(ctx context.Context, bookingID int64, channel string) (string, error) {
	threadIDs, err := db.chatThreads(ctx, bookingID, channel)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Booking #%d on %s\n", bookingID, channel)
	if len(threadIDs) == 0 {
		b.WriteString("No messages yet.\n")
		return b.String(), nil
	}

	in, args := inClause(threadIDs)
	rows, err := db.QueryContext(ctx, `
		SELECT created_at, sender_type, sender_name, content
		FROM messages
		WHERE thread_id IN (`+in+`)
		ORDER BY created_at, id`, args...)
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()

	count := 0
	for rows.Next() {
		var at, sender, name, content string
		if err := rows.Scan(&at, &sender, &name, &content); err != nil {
			return "", err
		}
		if name == "" {
			name = sender
		}
		fmt.Fprintf(&b, "[%s] %s (%s): %s\n", at, name, sender, content)
		count++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if count == 0 {
		b.WriteString("No messages yet.\n")
		return b.String(), nil
	}

	if err := db.markRead(ctx, threadIDs); err != nil {
		return "", err
	}
	return b.String(), nil
}

// chatThreads lists the booking's threads whose chat channel is channel.
func (db *DB) chatThreads(ctx context.Context, bookingID int64, channel string) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, channel, ota_booking_id FROM threads WHERE booking_id = ? ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		var raw, external string
		if err := rows.Scan(&id, &raw, &external); err != nil {
			return nil, err
		}
		if strings.EqualFold(feed.ChatChannel(feed.ClassifyChannel(raw, external), raw), channel) {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

func (db *DB) markRead(ctx context.Context, threadIDs []int64) error {
	in, args := inClause(threadIDs)
	_, err := db.ExecContext(ctx, `
		UPDATE messages SET read_at = ?
		WHERE read_at IS NULL AND sender_type = 'guest' AND thread_id IN (`+in+`)`,
		append([]any{feed.FormatTime(time.Now())}, args...)...)
	return err
}

func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
