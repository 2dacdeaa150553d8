// Package tags builds and reads the IRCv3 message tags that carry Discord
// message identity, replies, reactions and presence.
package tags

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lrstanley/girc"
)

// Tags produced on delivered events.
const (
	Account    = "account"
	MsgID      = "msgid"
	DraftMsgID = "draft/msgid"
	Time       = "time"
	Bot        = "bot"
)

// Client tags understood in both directions.
const (
	Reply = "+draft/reply"
	React = "+draft/react"
)

// Vendor tags consumed from outgoing commands.
const (
	EmbedTitle     = "+discordapp.com/embed-title"
	PresenceType   = "+discordapp.com/type"
	PresenceStatus = "+discordapp.com/status"
)

// TimeFormat is the server-time layout: UTC, second precision, literal Z.
const TimeFormat = "2006-01-02T15:04:05Z"

// variationSelector is U+FE0F. Emoji pickers append it, but Discord rejects
// it on most emoji.
const variationSelector = "\ufe0f"

// FromMessage builds the tags for a created Discord message.
func FromMessage(m *discordgo.Message) girc.Tags {
	t := girc.Tags{
		Account:    m.Author.ID,
		DraftMsgID: m.ID,
		MsgID:      m.ID,
		Time:       m.Timestamp.UTC().Format(TimeFormat),
	}
	if m.Author.Bot {
		t[Bot] = ""
	}
	if m.Type == discordgo.MessageTypeReply && m.MessageReference != nil {
		t[Reply] = m.MessageReference.MessageID
	}
	return t
}

// FromReaction builds the tags for an added reaction. It reports false when
// the emoji has no name, in which case the reaction cannot be relayed.
func FromReaction(r *discordgo.MessageReaction) (girc.Tags, bool) {
	if r.Emoji.Name == "" {
		return nil, false
	}
	return girc.Tags{
		Account: r.UserID,
		Reply:   r.MessageID,
		React:   r.Emoji.Name,
	}, true
}

// Outbound holds the tags an outgoing command may carry.
type Outbound struct {
	// ReplyTo is the message being replied or reacted to.
	ReplyTo  string
	HasReply bool

	React string

	// EmbedTitle is the legacy NOTICE title override. It may be present and
	// empty.
	EmbedTitle    string
	HasEmbedTitle bool

	// PresenceType is lowercased; PresenceStatus is kept verbatim.
	PresenceType   string
	PresenceStatus string
}

// Parse reads the tags of an outgoing command. Unknown tags are ignored.
func Parse(t girc.Tags) Outbound {
	var o Outbound
	if t == nil {
		return o
	}
	o.ReplyTo, o.HasReply = t[Reply]
	o.React = t[React]
	o.EmbedTitle, o.HasEmbedTitle = t[EmbedTitle]
	o.PresenceType = strings.ToLower(t[PresenceType])
	o.PresenceStatus = t[PresenceStatus]
	return o
}

// StripVariationSelector removes trailing U+FE0F from an emoji.
func StripVariationSelector(emoji string) string {
	for strings.HasSuffix(emoji, variationSelector) {
		emoji = strings.TrimSuffix(emoji, variationSelector)
	}
	return emoji
}
