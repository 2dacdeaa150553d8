package bridge

import (
	"github.com/bwmarrin/discordgo"
	"github.com/lrstanley/girc"
	"github.com/soyeahso/irccord/internal/hooks"
	"github.com/soyeahso/irccord/internal/tags"
)

func (c *Conn) onMessage(a *attempt, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil || !c.current(a) {
		return
	}
	if c.isSelf(m.Author.ID) && !c.hasCap(CapEchoMessage) {
		return
	}

	channel := m.ChannelID
	if m.GuildID != "" {
		channel = "#" + channel
	}

	c.log.Debug().
		Str("channel", channel).
		Str("author", m.Author.ID).
		Str("msgid", m.ID).
		Msg("new message")

	c.deliver(girc.Event{
		Source:  hostmask(m.Author),
		Tags:    tags.FromMessage(m.Message),
		Command: girc.PRIVMSG,
		Params:  []string{channel, c.trailing(m.Content)},
	})
}

func (c *Conn) onReaction(a *attempt, r *discordgo.MessageReactionAdd) {
	// DM reactions carry no member, so there is no one to attribute them to.
	if r.MessageReaction == nil || r.Member == nil || r.Member.User == nil || !c.current(a) {
		return
	}
	t, ok := tags.FromReaction(r.MessageReaction)
	if !ok {
		return
	}
	if c.isSelf(r.UserID) && !c.hasCap(CapEchoMessage) {
		return
	}

	c.deliver(girc.Event{
		Source:  hostmask(r.Member.User),
		Tags:    t,
		Command: cmdTagmsg,
		Params:  []string{"#" + r.ChannelID},
	})
}

func (c *Conn) onGuildCreate(a *attempt, g *discordgo.GuildCreate) {
	if g.Guild == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == a && c.guilds != nil {
		c.guilds[g.ID] = struct{}{}
	}
}

func (c *Conn) onGuildDelete(a *attempt, g *discordgo.GuildDelete) {
	// Unavailable guilds are outages, not departures.
	if g.Guild == nil || g.Unavailable {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == a && c.guilds != nil {
		delete(c.guilds, g.ID)
	}
}

// deliver hands e to the local handler.
func (c *Conn) deliver(e girc.Event) {
	text := ""
	if len(e.Params) > 1 {
		text = e.Last()
	}
	c.emit(hooks.EventMessageReceived, map[string]any{
		"command": e.Command,
		"channel": e.Params[0],
		"text":    text,
		"msgid":   e.Tags[tags.MsgID],
		"account": e.Tags[tags.Account],
		"source":  e.Source.Name,
	})
	if c.handler != nil {
		c.handler.HandleEvent(e)
	}
}

// trailing applies the legacy ':' prefix to a trailing parameter.
func (c *Conn) trailing(s string) string {
	if c.opts.LegacyTrailing {
		return ":" + s
	}
	return s
}

func (c *Conn) current(a *attempt) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur == a
}

func (c *Conn) isSelf(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self != nil && c.self.ID == userID
}
