package bridge

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lrstanley/girc"
	"github.com/soyeahso/irccord/internal/hooks"
	"github.com/soyeahso/irccord/internal/ircfmt"
	"github.com/soyeahso/irccord/internal/tags"
)

// dispatchFunc turns an outgoing command into a task bound to s. A nil task
// means there is nothing to send.
type dispatchFunc func(s Session, e *girc.Event) task

// streamURL is attached to "streaming" activities; Discord only shows the
// streaming status for twitch and youtube links.
const streamURL = "https://www.twitch.tv/directory"

func (c *Conn) newDispatcher() map[string]dispatchFunc {
	return map[string]dispatchFunc{
		girc.PRIVMSG: c.dispatchPrivmsg,
		cmdTagmsg:    c.dispatchTagmsg,
		girc.NOTICE:  c.dispatchNotice,
		girc.AWAY:    c.dispatchAway,
	}
}

func (c *Conn) dispatchPrivmsg(s Session, e *girc.Event) task {
	if len(e.Params) != 2 {
		c.dlog.Debug().Int("args", len(e.Params)).Msg("invalid PRIVMSG")
		return nil
	}
	dest, ok := resolveTarget(e.Params[0])
	if !ok {
		return nil
	}

	text := unwrapAction(e.Params[1])
	content := ircfmt.Render(text)
	c.dlog.Debug().Str("content", content).Msg("translated PRIVMSG")

	msg := &discordgo.MessageSend{Content: content}
	return c.sendTask(s, e, dest, msg)
}

func (c *Conn) dispatchTagmsg(s Session, e *girc.Event) task {
	if len(e.Params) == 0 {
		return nil
	}
	dest, ok := resolveTarget(e.Params[0])
	if !ok {
		return nil
	}
	return c.sendTask(s, e, dest, nil)
}

func (c *Conn) dispatchNotice(s Session, e *girc.Event) task {
	if len(e.Params) != 2 {
		c.dlog.Debug().Int("args", len(e.Params)).Msg("invalid NOTICE")
		return nil
	}
	dest, ok := resolveTarget(e.Params[0])
	if !ok {
		return nil
	}

	parsed := ircfmt.ParseEmbed(e.Params[1])
	title, body := parsed.Title, parsed.Description
	if out := tags.Parse(e.Tags); out.HasEmbedTitle {
		title, body = out.EmbedTitle, parsed.Text
	}

	embed := &discordgo.MessageEmbed{
		Title:       ircfmt.Render(title),
		Description: ircfmt.Render(body),
	}
	if parsed.HasColour {
		embed.Color = parsed.Colour
	}

	msg := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return c.sendTask(s, e, dest, msg)
}

func (c *Conn) dispatchAway(s Session, e *girc.Event) task {
	out := tags.Parse(e.Tags)

	status, ok := presenceStatus(out.PresenceStatus)
	if !ok {
		c.dlog.Warn().Str("status", out.PresenceStatus).Msg("invalid status sent to AWAY, presence unchanged")
		return nil
	}

	usd := discordgo.UpdateStatusData{
		Status:     status,
		Activities: []*discordgo.Activity{},
	}
	if text := strings.Join(e.Params, " "); text != "" {
		usd.Activities = append(usd.Activities, activity(out.PresenceType, text))
	}
	c.dlog.Debug().Str("status", status).Int("activities", len(usd.Activities)).Msg("changing presence")

	return func() {
		c.emitSending(e, "")
		if err := s.UpdateStatusComplex(usd); err != nil {
			c.dlog.Error().Err(err).Msg("presence update failed")
		}
	}
}

// sendTask sends msg to dest, honouring the reply and reaction tags of e.
// msg is nil for tag-only commands.
func (c *Conn) sendTask(s Session, e *girc.Event, dest Destination, msg *discordgo.MessageSend) task {
	out := tags.Parse(e.Tags)

	replyTo := ""
	if out.HasReply {
		if isSnowflake(out.ReplyTo) {
			replyTo = out.ReplyTo
		} else {
			c.dlog.Debug().Str("reply", out.ReplyTo).Msg("ignoring invalid reply id")
		}
	}
	if replyTo == "" && msg == nil {
		return nil
	}

	return func() {
		c.emitSending(e, dest.ChannelID)

		if replyTo != "" {
			if out.React != "" {
				emoji := tags.StripVariationSelector(out.React)
				if err := s.MessageReactionAdd(dest.ChannelID, replyTo, emoji); err != nil {
					c.dlog.Error().Err(err).
						Str("channel", dest.ChannelID).
						Str("message", replyTo).
						Msg("adding reaction failed")
				}
			}
			if msg == nil {
				return
			}

			failIfNotExists := false
			reply := *msg
			reply.Reference = &discordgo.MessageReference{
				MessageID:       replyTo,
				ChannelID:       dest.ChannelID,
				FailIfNotExists: &failIfNotExists,
			}
			_, err := s.ChannelMessageSendComplex(dest.ChannelID, &reply)
			if err == nil {
				return
			}
			if !isForbidden(err) {
				c.dlog.Error().Err(err).Str("channel", dest.ChannelID).Msg("sending reply failed")
				return
			}
			// Without "read message history" Discord refuses replies.
			c.dlog.Debug().Str("channel", dest.ChannelID).Msg("reply forbidden, sending without reference")
		}

		if _, err := s.ChannelMessageSendComplex(dest.ChannelID, msg); err != nil {
			c.dlog.Error().Err(err).Str("channel", dest.ChannelID).Msg("sending message failed")
		}
	}
}

func (c *Conn) emitSending(e *girc.Event, channelID string) {
	text := ""
	if len(e.Params) > 1 {
		text = e.Last()
	}
	c.emit(hooks.EventMessageSending, map[string]any{
		"command": e.Command,
		"channel": channelID,
		"text":    text,
		"reply":   e.Tags[tags.Reply],
		"react":   e.Tags[tags.React],
	})
}

// unwrapAction rewrites a CTCP ACTION as italic text. The closing \x01 is
// optional.
func unwrapAction(text string) string {
	const prefix = "\x01ACTION"
	if len(text) < len(prefix) || !strings.EqualFold(text[:len(prefix)], prefix) {
		return text
	}
	rest := ""
	if len(text) > len(prefix)+1 {
		rest = text[len(prefix)+1:]
	}
	return "\x1d" + strings.ReplaceAll(rest, "\x01", "")
}

func presenceStatus(s string) (string, bool) {
	switch s {
	case "", "online":
		return string(discordgo.StatusOnline), true
	case "idle":
		return string(discordgo.StatusIdle), true
	case "dnd", "do_not_disturb":
		return string(discordgo.StatusDoNotDisturb), true
	case "invisible":
		return string(discordgo.StatusInvisible), true
	case "offline":
		return string(discordgo.StatusOffline), true
	default:
		return "", false
	}
}

func activity(kind, name string) *discordgo.Activity {
	a := &discordgo.Activity{Name: name, Type: discordgo.ActivityTypeGame}
	switch kind {
	case "watching":
		a.Type = discordgo.ActivityTypeWatching
	case "listening to":
		a.Type = discordgo.ActivityTypeListening
	case "streaming":
		a.Type = discordgo.ActivityTypeStreaming
		a.URL = streamURL
	}
	return a
}

// isForbidden reports whether err is a 403 from the Discord REST API.
func isForbidden(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Response == nil {
		return false
	}
	return rest.Response.StatusCode == http.StatusForbidden
}
