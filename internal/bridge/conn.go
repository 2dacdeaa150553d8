package bridge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/lrstanley/girc"
	"github.com/soyeahso/irccord/internal/hooks"
	"github.com/soyeahso/irccord/internal/logging"
	"github.com/soyeahso/irccord/internal/version"
)

// ErrRunning is returned by Run when the Conn is already running.
var ErrRunning = errors.New("bridge: already running")

// Conn is a bridge connection to Discord. Commands sent before Discord is
// ready are queued and replayed, in order, once it is.
type Conn struct {
	opts    Options
	handler Handler
	log     *logging.Logger
	dlog    *logging.Logger
	cmds    map[string]dispatchFunc

	mu      sync.Mutex
	state   State
	running bool
	stopped bool
	stop    chan struct{}
	sendq   []*girc.Event
	cur     *attempt
	self    *discordgo.User
	caps    []string
	guilds  map[string]struct{}
}

// attempt is a single session from Open until disconnection.
type attempt struct {
	id      string
	session Session
	loop    *taskLoop

	once sync.Once
	done chan struct{}
	err  error
}

func (a *attempt) finish(err error) {
	a.once.Do(func() {
		a.err = err
		close(a.done)
	})
}

// New creates a Conn delivering events to h.
func New(opts Options, h Handler, log *logging.Logger) *Conn {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.NewSession == nil {
		opts.NewSession = DiscordSession
	}
	c := &Conn{
		opts:    opts,
		handler: h,
		log:     log.Sub("bridge"),
		dlog:    log.Sub("dispatch"),
	}
	c.cmds = c.newDispatcher()
	return c
}

// Connect starts the connection in the background. It does nothing when
// the Conn is already running.
func (c *Conn) Connect(ctx context.Context) error {
	if !c.start() {
		c.log.Debug().Msg("already connected")
		return nil
	}
	go func() {
		if err := c.run(ctx); err != nil {
			c.log.Error().Err(err).Msg("connection ended")
		}
	}()
	return nil
}

// Run connects and blocks until the connection ends for good: ctx is
// cancelled, Disconnect is called, or the session fails without Persist.
func (c *Conn) Run(ctx context.Context) error {
	if !c.start() {
		return ErrRunning
	}
	return c.run(ctx)
}

func (c *Conn) start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return false
	}
	c.running = true
	c.stopped = false
	c.stop = make(chan struct{})
	return true
}

func (c *Conn) run(ctx context.Context) error {
	c.mu.Lock()
	stop := c.stop
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	for {
		err := c.runOnce(ctx, stop)
		if ctx.Err() != nil || c.isStopped() {
			return nil
		}
		if !c.opts.Persist {
			return err
		}

		c.log.Info().Dur("delay", c.opts.ReconnectDelay).Msg("reconnecting")
		timer := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-stop:
			timer.Stop()
			return nil
		}
	}
}

func (c *Conn) runOnce(ctx context.Context, stop <-chan struct{}) error {
	s, err := c.opts.NewSession(c.opts.Token)
	if err != nil {
		return err
	}
	c.configure(s)

	a := c.begin(s)
	if a == nil {
		return nil
	}
	go a.loop.Run()
	removers := c.addHandlers(a)

	c.log.Info().Str("attempt", a.id).Bool("stateless", c.opts.StatelessMode).Msg("connecting to Discord")
	if err := s.Open(); err != nil {
		a.finish(fmt.Errorf("discord open: %w", err))
	}

	select {
	case <-a.done:
	case <-ctx.Done():
	case <-stop:
	}

	c.end(a)
	for _, remove := range removers {
		remove()
	}
	return a.err
}

// begin registers a new attempt on s. It returns nil if the Conn was stopped
// meanwhile.
func (c *Conn) begin(s Session) *attempt {
	a := &attempt{
		id:      uuid.NewString(),
		session: s,
		loop:    newTaskLoop(),
		done:    make(chan struct{}),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return nil
	}
	c.cur = a
	c.state = StateConnecting
	return a
}

// end tears down a. Commands sent from now on are queued for the next attempt.
func (c *Conn) end(a *attempt) {
	c.mu.Lock()
	if c.cur == a {
		c.cur = nil
		c.state = StateDisconnected
		c.self = nil
		c.caps = nil
		c.guilds = nil
	}
	c.mu.Unlock()

	a.loop.Close()
	if err := a.session.Close(); err != nil {
		c.log.Debug().Err(err).Msg("closing session")
	}
	a.finish(nil)

	ev := c.log.Warn().Str("attempt", a.id)
	if a.err != nil {
		ev = ev.Err(a.err)
	}
	ev.Msg("disconnected from Discord")

	data := map[string]any{"attempt": a.id}
	if a.err != nil {
		data["error"] = a.err.Error()
	}
	c.emitAsync(hooks.EventDisconnected, data)
}

// configure applies session settings that only exist on *discordgo.Session.
func (c *Conn) configure(s Session) {
	ds, ok := s.(*discordgo.Session)
	if !ok {
		return
	}
	// Reconnects are driven by Run so that every attempt gets a fresh Ready.
	ds.ShouldReconnectOnError = false
	ds.SyncEvents = true
	ds.UserAgent = version.UserAgent()
	ds.State.MaxMessageCount = 0
	if c.opts.StatelessMode {
		ds.StateEnabled = false
		ds.Identify.Intents = discordgo.IntentsGuildMessages |
			discordgo.IntentsDirectMessages |
			discordgo.IntentsGuildMessageReactions |
			discordgo.IntentsDirectMessageReactions |
			discordgo.IntentsMessageContent
	} else {
		ds.Identify.Intents = discordgo.IntentsAllWithoutPrivileged | discordgo.IntentsMessageContent
	}
}

func (c *Conn) addHandlers(a *attempt) []func() {
	s := a.session
	return []func(){
		s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) { c.onReady(a, r) }),
		s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) { c.onMessage(a, m) }),
		s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) { c.onReaction(a, r) }),
		s.AddHandler(func(_ *discordgo.Session, g *discordgo.GuildCreate) { c.onGuildCreate(a, g) }),
		s.AddHandler(func(_ *discordgo.Session, g *discordgo.GuildDelete) { c.onGuildDelete(a, g) }),
		s.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) { a.finish(nil) }),
	}
}

// onReady fixes the capability set, replays the send queue and delivers
// the welcome numeric.
func (c *Conn) onReady(a *attempt, r *discordgo.Ready) {
	if r.User == nil {
		return
	}

	c.mu.Lock()
	if c.cur != a {
		c.mu.Unlock()
		return
	}
	c.self = r.User
	c.caps = c.negotiateCaps()
	c.guilds = make(map[string]struct{}, len(r.Guilds))
	for _, g := range r.Guilds {
		c.guilds[g.ID] = struct{}{}
	}
	c.state = StateReady

	// Replay tasks are submitted before the lock is released, so nothing sent
	// afterwards can overtake them.
	sendq := c.sendq
	c.sendq = nil
	for _, e := range sendq {
		c.dispatch(a, e)
	}
	nick := r.User.Mention()
	servers := len(c.guilds)
	c.mu.Unlock()

	c.log.Info().
		Str("attempt", a.id).
		Str("user", r.User.String()).
		Int("servers", servers).
		Int("replayed", len(sendq)).
		Msg("connected to Discord")

	c.deliver(girc.Event{
		Source:  welcomeSource(),
		Tags:    girc.Tags{},
		Command: girc.RPL_WELCOME,
		Params:  []string{nick, c.trailing("Welcome to Discord " + nick)},
	})
	c.emitAsync(hooks.EventReady, map[string]any{
		"attempt": a.id,
		"nick":    nick,
		"servers": servers,
	})
}

func (c *Conn) negotiateCaps() []string {
	caps := []string{CapAccountTag, CapMessageTags, CapServerTime}
	if slices.Contains(c.opts.Caps, CapEchoMessage) {
		caps = append(caps, CapEchoMessage)
	}
	return caps
}

// Send sends an IRC command to Discord, queueing it until Discord is ready.
func (c *Conn) Send(cmd string, tags girc.Tags, args ...string) {
	c.send(false, newEvent(cmd, tags, args))
}

// SendForce is Send without queueing: the command is dispatched as soon as a
// session exists, even before Discord reports ready.
func (c *Conn) SendForce(cmd string, tags girc.Tags, args ...string) {
	c.send(true, newEvent(cmd, tags, args))
}

// Quote parses a raw IRC line and sends it. Non-nil tags replace any tags
// on the line.
func (c *Conn) Quote(line string, tags girc.Tags) {
	e := girc.ParseEvent(line)
	if e == nil {
		c.log.Debug().Str("line", line).Msg("ignoring unparseable line")
		return
	}
	if tags != nil {
		e.Tags = tags
	}
	c.send(false, newEvent(e.Command, e.Tags, e.Params))
}

func newEvent(cmd string, tags girc.Tags, args []string) *girc.Event {
	if tags == nil {
		tags = girc.Tags{}
	}
	return &girc.Event{
		Command: strings.ToUpper(cmd),
		Tags:    tags,
		Params:  slices.Clone(args),
	}
}

func (c *Conn) send(force bool, e *girc.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cur == nil || (c.state != StateReady && !force) {
		c.log.Debug().Str("cmd", e.Command).Strs("args", e.Params).Msg(">Q>")
		c.sendq = append(c.sendq, e)
		return
	}
	c.dispatch(c.cur, e)
}

// dispatch must be called with c.mu held.
func (c *Conn) dispatch(a *attempt, e *girc.Event) {
	c.log.Debug().Str("cmd", e.Command).Strs("args", e.Params).Msg(">>>")

	fn, ok := c.cmds[e.Command]
	if !ok {
		c.dlog.Debug().Str("cmd", e.Command).Msg("ignoring unknown command")
		return
	}
	if t := fn(a.session, e); t != nil {
		a.loop.Submit(t)
	}
}

// Disconnect ends the current attempt and suppresses reconnects.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.stopped {
		return
	}
	c.stopped = true
	close(c.stop)
}

func (c *Conn) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// CurrentNick returns the mention form of the bot user once Discord is
// ready, and the configured nick before that.
func (c *Conn) CurrentNick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.self == nil {
		return c.opts.Nick
	}
	return c.self.Mention()
}

// ActiveCaps returns the capabilities in effect since Discord became ready.
func (c *Conn) ActiveCaps() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.caps)
}

func (c *Conn) hasCap(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.caps, name)
}

// Connected reports whether Discord is ready.
func (c *Conn) Connected() bool {
	return c.State() == StateReady
}

// State returns the connection state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ServerCount returns the number of guilds the bot is in, or 0 when not
// connected.
func (c *Conn) ServerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.guilds)
}

func (c *Conn) emit(event string, data map[string]any) {
	if c.opts.Hooks != nil {
		c.opts.Hooks.Emit(context.Background(), event, data)
	}
}

func (c *Conn) emitAsync(event string, data map[string]any) {
	if c.opts.Hooks != nil {
		c.opts.Hooks.EmitAsync(context.Background(), event, data)
	}
}
