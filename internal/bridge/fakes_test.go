package bridge

import (
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lrstanley/girc"
	"github.com/soyeahso/irccord/internal/logging"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	channelID string
	data      discordgo.MessageSend
}

type addedReaction struct {
	channelID, messageID, emoji string
}

// fakeSession records the calls the bridge makes.
type fakeSession struct {
	mu        sync.Mutex
	openErr   error
	sendErrs  []error
	handlers  int
	opened    int
	closed    int
	sends     []sentMessage
	reactions []addedReaction
	statuses  []discordgo.UpdateStatusData
}

func (f *fakeSession) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	return f.openErr
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeSession) AddHandler(interface{}) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers++
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.handlers--
	}
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentMessage{channelID: channelID, data: *data})
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, addedReaction{channelID, messageID, emojiID})
	return nil
}

func (f *fakeSession) UpdateStatusComplex(usd discordgo.UpdateStatusData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, usd)
	return nil
}

func (f *fakeSession) sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sends...)
}

func (f *fakeSession) reacted() []addedReaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]addedReaction(nil), f.reactions...)
}

func (f *fakeSession) presences() []discordgo.UpdateStatusData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]discordgo.UpdateStatusData(nil), f.statuses...)
}

// recorder is a Handler that keeps every delivered event.
type recorder struct {
	mu     sync.Mutex
	events []girc.Event
}

func (r *recorder) HandleEvent(e girc.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []girc.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]girc.Event(nil), r.events...)
}

func (r *recorder) commands(cmd string) []girc.Event {
	var out []girc.Event
	for _, e := range r.all() {
		if e.Command == cmd {
			out = append(out, e)
		}
	}
	return out
}

var botUser = &discordgo.User{ID: "1000", Username: "irccord", Discriminator: "0", Bot: true}

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

// startAttempt creates a Conn with a live attempt on a fake session, as if
// Open had just succeeded.
func startAttempt(t *testing.T, opts Options) (*Conn, *attempt, *fakeSession, *recorder) {
	t.Helper()
	rec := &recorder{}
	c := New(opts, rec, testLogger())
	fs := &fakeSession{}
	a := c.begin(fs)
	require.NotNil(t, a)
	go a.loop.Run()
	t.Cleanup(a.loop.Close)
	return c, a, fs, rec
}

func makeReady(c *Conn, a *attempt) {
	c.onReady(a, &discordgo.Ready{
		User:   botUser,
		Guilds: []*discordgo.Guild{{ID: "1"}, {ID: "2"}},
	})
}

// settle waits until every task submitted to a so far has run.
func settle(t *testing.T, a *attempt) {
	t.Helper()
	done := make(chan struct{})
	require.True(t, a.loop.Submit(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task loop did not drain in time")
	}
}
