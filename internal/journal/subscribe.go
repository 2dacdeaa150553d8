package journal

import (
	"context"

	"github.com/soyeahso/irccord/internal/hooks"
)

const hookName = "journal"

// Subscribe records relayed messages emitted on m.
func (db *DB) Subscribe(m *hooks.Manager) {
	m.On(hooks.EventMessageReceived, hookName, func(ctx context.Context, p hooks.Payload) error {
		_, err := db.Record(ctx, Entry{
			Direction: Inbound,
			Command:   p.String("command"),
			Channel:   p.String("channel"),
			MsgID:     p.String("msgid"),
			Account:   p.String("account"),
			Preview:   p.String("text"),
		})
		return err
	})
	m.On(hooks.EventMessageSending, hookName, func(ctx context.Context, p hooks.Payload) error {
		_, err := db.Record(ctx, Entry{
			Direction: Outbound,
			Command:   p.String("command"),
			Channel:   p.String("channel"),
			ReplyTo:   p.String("reply"),
			Preview:   p.String("text"),
		})
		return err
	})
}

// Unsubscribe removes the handlers added by Subscribe.
func (db *DB) Unsubscribe(m *hooks.Manager) {
	m.Off(hooks.EventMessageReceived, hookName)
	m.Off(hooks.EventMessageSending, hookName)
}
