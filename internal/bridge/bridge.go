// Package bridge connects a local IRC handler to Discord. Discord events are
// delivered to the handler as IRC events; IRC commands sent through a Conn are
// translated into Discord API calls.
package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lrstanley/girc"
	"github.com/soyeahso/irccord/internal/hooks"
)

// Session is the part of *discordgo.Session used by the bridge.
type Session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
}

// SessionFactory creates a fresh session for each connection attempt.
type SessionFactory func(token string) (Session, error)

// DiscordSession is the default SessionFactory. Bot tokens may be given with
// or without the "Bot " prefix.
func DiscordSession(token string) (Session, error) {
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}
	s, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return s, nil
}

// Handler receives events produced by the bridge.
type Handler interface {
	HandleEvent(e girc.Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(e girc.Event)

// HandleEvent calls f(e).
func (f HandlerFunc) HandleEvent(e girc.Event) { f(e) }

// Client is what a local IRC handler needs from the bridge.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()
	Send(cmd string, tags girc.Tags, args ...string)
	Quote(line string, tags girc.Tags)
	CurrentNick() string
	ActiveCaps() []string
	Connected() bool
	ServerCount() int
}

var _ Client = (*Conn)(nil)

// Options configures a Conn.
type Options struct {
	Token string

	// Nick is reported by CurrentNick until Discord assigns the mention form.
	Nick string

	// Caps lists the capabilities requested by the local handler. Only
	// echo-message has an effect.
	Caps []string

	Persist        bool
	ReconnectDelay time.Duration

	// StatelessMode subscribes to the minimum set of gateway intents and
	// disables discordgo's state cache.
	StatelessMode bool

	// LegacyTrailing prefixes the trailing parameter of delivered events
	// with ':' for handlers that expect it in the parameter itself.
	LegacyTrailing bool

	Hooks      *hooks.Manager
	NewSession SessionFactory
}

// DefaultReconnectDelay is used when Options.ReconnectDelay is zero.
const DefaultReconnectDelay = 5 * time.Second

// State is the connection state of a Conn.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateReady
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Capabilities reported to the handler once Discord is ready.
const (
	CapAccountTag  = "account-tag"
	CapMessageTags = "message-tags"
	CapServerTime  = "server-time"
	CapEchoMessage = "echo-message"
)

// TAGMSG is not among girc's command constants.
const cmdTagmsg = "TAGMSG"
