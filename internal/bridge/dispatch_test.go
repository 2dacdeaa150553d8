package bridge

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/lrstanley/girc"
	"github.com/soyeahso/irccord/internal/logging"
	"github.com/soyeahso/irccord/internal/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyAttempt(t *testing.T) (*Conn, *attempt, *fakeSession) {
	t.Helper()
	c, a, fs, _ := startAttempt(t, Options{})
	makeReady(c, a)
	return c, a, fs
}

func forbidden() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
}

func TestPrivmsgRendersText(t *testing.T) {
	c, a, fs := readyAttempt(t)

	c.Send("PRIVMSG", nil, "#200", "Hello \x02world\x02!")
	settle(t, a)

	sent := fs.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "200", sent[0].channelID)
	assert.Equal(t, "Hello **world**!", sent[0].data.Content)
	assert.Nil(t, sent[0].data.Reference)
}

func TestPrivmsgAction(t *testing.T) {
	c, a, fs := readyAttempt(t)

	c.Send("PRIVMSG", nil, "200", "\x01ACTION waves\x01")
	settle(t, a)

	sent := fs.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "_waves_", sent[0].data.Content)
}

func TestPrivmsgSkipped(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		args []string
	}{
		{"missing text", "PRIVMSG", []string{"#200"}},
		{"too many args", "PRIVMSG", []string{"#200", "a", "b"}},
		{"named channel", "PRIVMSG", []string{"#general", "hi"}},
		{"empty target", "PRIVMSG", []string{"", "hi"}},
		{"notice without text", "NOTICE", []string{"#200"}},
		{"tagmsg without target", "TAGMSG", nil},
		{"tagmsg without tags", "TAGMSG", []string{"#200"}},
		{"unknown verb", "JOIN", []string{"#200"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, a, fs := readyAttempt(t)
			c.Send(tt.cmd, nil, tt.args...)
			settle(t, a)
			assert.Empty(t, fs.sent())
			assert.Empty(t, fs.reacted())
			assert.Empty(t, fs.presences())
		})
	}
}

func TestPrivmsgReplyWithReaction(t *testing.T) {
	c, a, fs := readyAttempt(t)

	c.Send("PRIVMSG", girc.Tags{
		tags.Reply: "555",
		tags.React: "\U0001f44d\ufe0f",
	}, "#200", "agreed")
	settle(t, a)

	assert.Equal(t, []addedReaction{{"200", "555", "\U0001f44d"}}, fs.reacted())

	sent := fs.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "agreed", sent[0].data.Content)
	ref := sent[0].data.Reference
	require.NotNil(t, ref)
	assert.Equal(t, "555", ref.MessageID)
	assert.Equal(t, "200", ref.ChannelID)
	require.NotNil(t, ref.FailIfNotExists)
	assert.False(t, *ref.FailIfNotExists)
}

func TestReplyForbiddenFallsBackToPlainSend(t *testing.T) {
	c, a, fs := readyAttempt(t)
	fs.sendErrs = []error{forbidden()}

	c.Send("PRIVMSG", girc.Tags{tags.Reply: "555"}, "#200", "hello")
	settle(t, a)

	sent := fs.sent()
	require.Len(t, sent, 2)
	assert.NotNil(t, sent[0].data.Reference)
	assert.Nil(t, sent[1].data.Reference)
	assert.Equal(t, "hello", sent[1].data.Content)
}

func TestReplyOtherErrorNotRetried(t *testing.T) {
	c, a, fs := readyAttempt(t)
	fs.sendErrs = []error{
		&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusInternalServerError}},
	}

	c.Send("PRIVMSG", girc.Tags{tags.Reply: "555"}, "#200", "hello")
	settle(t, a)
	assert.Len(t, fs.sent(), 1)
}

func TestInvalidReplyIDSendsPlain(t *testing.T) {
	c, a, fs := readyAttempt(t)

	c.Send("PRIVMSG", girc.Tags{tags.Reply: "not-an-id", tags.React: "x"}, "#200", "hello")
	settle(t, a)

	assert.Empty(t, fs.reacted())
	sent := fs.sent()
	require.Len(t, sent, 1)
	assert.Nil(t, sent[0].data.Reference)
}

func TestTagmsgReactionOnly(t *testing.T) {
	c, a, fs := readyAttempt(t)

	c.Send("TAGMSG", girc.Tags{tags.Reply: "555", tags.React: "\U0001f389"}, "#200")
	settle(t, a)

	assert.Equal(t, []addedReaction{{"200", "555", "\U0001f389"}}, fs.reacted())
	assert.Empty(t, fs.sent(), "tag-only commands never send a message")
}

func TestTagmsgBareReply(t *testing.T) {
	c, a, fs := readyAttempt(t)

	c.Send("TAGMSG", girc.Tags{tags.Reply: "555"}, "#200")
	settle(t, a)

	assert.Empty(t, fs.reacted())
	assert.Empty(t, fs.sent())
}

func TestNoticeEmbed(t *testing.T) {
	c, a, fs := readyAttempt(t)

	c.Send("NOTICE", nil, "#200", "\x0303\x02Deploy *done*\x02\nAll checks passed")
	settle(t, a)

	sent := fs.sent()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].data.Content)
	require.Len(t, sent[0].data.Embeds, 1)
	embed := sent[0].data.Embeds[0]
	assert.Equal(t, `Deploy \*done\*`, embed.Title)
	assert.Equal(t, "All checks passed", embed.Description)
	assert.Equal(t, 0x2ecc71, embed.Color)
}

func TestNoticeLegacyTitleWins(t *testing.T) {
	c, a, fs := readyAttempt(t)

	c.Send("NOTICE", girc.Tags{tags.EmbedTitle: "Legacy"}, "#200", "\x02Bold\x02\nBody")
	settle(t, a)

	sent := fs.sent()
	require.Len(t, sent, 1)
	embed := sent[0].data.Embeds[0]
	assert.Equal(t, "Legacy", embed.Title)
	assert.Equal(t, "**Bold**\nBody", embed.Description)
	assert.Zero(t, embed.Color)
}

func TestNoticeReply(t *testing.T) {
	c, a, fs := readyAttempt(t)

	c.Send("NOTICE", girc.Tags{tags.Reply: "555"}, "#200", "body")
	settle(t, a)

	sent := fs.sent()
	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].data.Reference)
	assert.Equal(t, "555", sent[0].data.Reference.MessageID)
}

func TestAwayPresence(t *testing.T) {
	tests := []struct {
		name   string
		tags   girc.Tags
		args   []string
		status discordgo.Status
		want   []*discordgo.Activity
	}{
		{
			name:   "game by default",
			args:   []string{"a", "game"},
			status: discordgo.StatusOnline,
			want:   []*discordgo.Activity{{Name: "a game", Type: discordgo.ActivityTypeGame}},
		},
		{
			name:   "watching",
			tags:   girc.Tags{tags.PresenceType: "Watching"},
			args:   []string{"the logs"},
			status: discordgo.StatusOnline,
			want:   []*discordgo.Activity{{Name: "the logs", Type: discordgo.ActivityTypeWatching}},
		},
		{
			name:   "listening",
			tags:   girc.Tags{tags.PresenceType: "listening to", tags.PresenceStatus: "idle"},
			args:   []string{"music"},
			status: discordgo.StatusIdle,
			want:   []*discordgo.Activity{{Name: "music", Type: discordgo.ActivityTypeListening}},
		},
		{
			name:   "streaming",
			tags:   girc.Tags{tags.PresenceType: "streaming", tags.PresenceStatus: "dnd"},
			args:   []string{"code"},
			status: discordgo.StatusDoNotDisturb,
			want: []*discordgo.Activity{{
				Name: "code", Type: discordgo.ActivityTypeStreaming, URL: "https://www.twitch.tv/directory",
			}},
		},
		{
			name:   "clear activity",
			tags:   girc.Tags{tags.PresenceStatus: "invisible"},
			status: discordgo.StatusInvisible,
			want:   []*discordgo.Activity{},
		},
		{
			name:   "empty status means online",
			tags:   girc.Tags{tags.PresenceStatus: ""},
			status: discordgo.StatusOnline,
			want:   []*discordgo.Activity{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, a, fs := readyAttempt(t)
			c.Send("AWAY", tt.tags, tt.args...)
			settle(t, a)

			got := fs.presences()
			require.Len(t, got, 1)
			assert.Equal(t, string(tt.status), got[0].Status)
			assert.Equal(t, tt.want, got[0].Activities)
		})
	}
}

func TestAwayInvalidStatusWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	c := New(Options{}, &recorder{}, logging.New(&buf, "warn"))
	fs := &fakeSession{}
	a := c.begin(fs)
	require.NotNil(t, a)
	go a.loop.Run()
	t.Cleanup(a.loop.Close)
	makeReady(c, a)

	c.Send("AWAY", girc.Tags{tags.PresenceStatus: "busy"}, "working")
	settle(t, a)

	assert.Empty(t, fs.presences(), "presence unchanged")
	assert.Equal(t, 1, strings.Count(buf.String(), "invalid status sent to AWAY"))
	assert.Equal(t, 1, strings.Count(buf.String(), `"level":"warn"`))
}

func TestUnwrapAction(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"\x01ACTION waves\x01", "\x1dwaves"},
		{"\x01action waves", "\x1dwaves"},
		{"\x01ACTION", "\x1d"},
		{"\x01ACTION\x01", "\x1d"},
		{"\x01VERSION\x01", "\x01VERSION\x01"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, unwrapAction(tt.input), "%q", tt.input)
	}
}

func TestIsForbidden(t *testing.T) {
	assert.True(t, isForbidden(forbidden()))
	assert.True(t, isForbidden(errors.Join(errors.New("send"), forbidden())))
	assert.False(t, isForbidden(&discordgo.RESTError{}))
	assert.False(t, isForbidden(errors.New("403")))
	assert.False(t, isForbidden(nil))
}
