package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lrstanley/girc"
)

// Direction of a relayed message.
type Direction string

const (
	// Inbound entries were delivered from Discord to the local handler.
	Inbound Direction = "in"
	// Outbound entries were sent from the local handler to Discord.
	Outbound Direction = "out"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// PreviewLength is the maximum number of runes kept from a message.
const PreviewLength = 200

// Entry is one relayed message.
type Entry struct {
	ID        string
	Direction Direction
	Command   string
	Channel   string
	MsgID     string
	Account   string
	ReplyTo   string
	Preview   string
	CreatedAt time.Time
}

// Record stores e. ID and CreatedAt are filled in when empty, and the
// preview is stripped of IRC formatting and truncated.
func (db *DB) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.Preview = preview(e.Preview)

	_, err := db.sql.ExecContext(ctx,
		`INSERT INTO entries (id, direction, command, channel, msgid, account, reply_to, preview, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Direction), e.Command, e.Channel, e.MsgID, e.Account, e.ReplyTo, e.Preview,
		e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return e, fmt.Errorf("recording entry: %w", err)
	}
	return e, nil
}

// Filter narrows Recent.
type Filter struct {
	Channel   string
	Direction Direction
	Limit     int
}

// Recent returns the newest entries first.
func (db *DB) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	query := `SELECT id, direction, command, channel, msgid, account, reply_to, preview, created_at
		 FROM entries WHERE 1 = 1`
	var args []any
	if f.Channel != "" {
		query += ` AND channel = ?`
		args = append(args, f.Channel)
	}
	if f.Direction != "" {
		query += ` AND direction = ?`
		args = append(args, string(f.Direction))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, f.Limit)

	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Count returns the number of stored entries.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Prune deletes entries recorded before cutoff and returns how many were
// removed.
func (db *DB) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.sql.ExecContext(ctx,
		`DELETE FROM entries WHERE created_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning entries: %w", err)
	}
	return res.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var direction, createdAt string
		if err := rows.Scan(
			&e.ID, &direction, &e.Command, &e.Channel, &e.MsgID,
			&e.Account, &e.ReplyTo, &e.Preview, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Direction = Direction(direction)
		e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func preview(text string) string {
	text = girc.StripRaw(text)
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:PreviewLength-1]) + "…"
}
