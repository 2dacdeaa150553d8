// Package console is a minimal local IRC client for the bridge: delivered
// events are printed as IRC lines and typed lines are sent as raw commands.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/lrstanley/girc"
	"github.com/soyeahso/irccord/internal/bridge"
	"github.com/soyeahso/irccord/internal/logging"
)

// Style selects how delivered events are printed.
type Style string

const (
	// StyleRaw prints the full IRC line, tags included.
	StyleRaw Style = "raw"
	// StylePretty prints a readable summary where girc has one.
	StylePretty Style = "pretty"
)

// quitCommand ends the read loop and disconnects the bridge.
const quitCommand = "/quit"

const prompt = "> "

// Console implements bridge.Handler.
type Console struct {
	style Style
	log   *logging.Logger

	mu  sync.Mutex
	out io.Writer
}

var _ bridge.Handler = (*Console)(nil)

// New creates a console printing to out.
func New(out io.Writer, style Style, log *logging.Logger) *Console {
	if style == "" {
		style = StyleRaw
	}
	return &Console{
		style: style,
		log:   log.Sub("console"),
		out:   out,
	}
}

// HandleEvent prints e.
func (c *Console) HandleEvent(e girc.Event) {
	line := e.String()
	if c.style == StylePretty {
		if pretty, ok := e.Pretty(); ok {
			line = pretty
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintln(c.out, line); err != nil {
		c.log.Warn().Err(err).Msg("writing event")
	}
}

// ReadLoop sends every non-empty line read from r through client until r
// is exhausted, ctx is done, or "/quit" is read.
func (c *Console) ReadLoop(ctx context.Context, r io.Reader, client bridge.Client) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if c.handleLine(scanner.Text(), client) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading console input: %w", err)
	}
	return nil
}

// Interactive is ReadLoop for a terminal: lines are edited with readline and
// delivered events are printed above the prompt. An interrupt on an empty
// line disconnects like "/quit".
func (c *Console) Interactive(ctx context.Context, client bridge.Client, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         quitCommand,
	})
	if err != nil {
		return fmt.Errorf("starting line editor: %w", err)
	}
	var closeOnce sync.Once
	closeEditor := func() { closeOnce.Do(func() { rl.Close() }) }
	defer closeEditor()

	c.mu.Lock()
	prev := c.out
	c.out = rl.Stdout()
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.out = prev
		c.mu.Unlock()
	}()

	stop := context.AfterFunc(ctx, closeEditor)
	defer stop()

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if strings.TrimSpace(line) == "" {
				client.Disconnect()
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading console input: %w", err)
		}
		if c.handleLine(line, client) {
			return nil
		}
	}
}

// handleLine sends line through client. It reports true when the line asks
// to quit.
func (c *Console) handleLine(line string, client bridge.Client) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case strings.EqualFold(line, quitCommand):
		c.log.Info().Msg("quit requested")
		client.Disconnect()
		return true
	}

	c.log.Debug().Str("line", line).Msg("sending")
	client.Quote(line, nil)
	return false
}
