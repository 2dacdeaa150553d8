// Package ircfmt converts IRC formatting control codes to Discord markdown.
package ircfmt

import (
	"regexp"
	"strconv"
	"strings"
)

// Discord markdown markers, keyed by the control code that toggles them.
const (
	markBold      = "**"
	markItalic    = "_"
	markUnderline = "__"
	markStrike    = "~~"
	markCode      = "`"
	markSpoiler   = "||"
)

// IRC control codes.
const (
	codeBold      = '\x02'
	codeColour    = '\x03'
	codeHexColour = '\x04'
	codeReset     = '\x0f'
	codeCode      = '\x11'
	codeReverse   = '\x16'
	codeItalic    = '\x1d'
	codeStrike    = '\x1e'
	codeUnderline = '\x1f'
)

// markerJoin separates adjacent markers so Discord does not fuse them
// (for example "**" followed by "_" must not read as "**_").
const markerJoin = "\u200b"

var toggles = map[byte]string{
	codeBold:      markBold,
	codeItalic:    markItalic,
	codeReverse:   markItalic,
	codeUnderline: markUnderline,
	codeStrike:    markStrike,
	codeCode:      markCode,
}

var formattingRe = regexp.MustCompile(
	"\x02|\x1d|\x1f|\x1e|\x11|\x16|\x0f" +
		"|\x03([0-9]{1,2})?(?:,([0-9]{1,2}))?" +
		"|\x04([0-9a-fA-F]{6})?(?:,([0-9a-fA-F]{6}))?",
)

// Render converts text containing IRC control codes into Discord markdown.
//
// Plain text is escaped so it is not read as markdown. Text inside a code
// span (\x11) is emitted verbatim. A colour code with equal foreground and
// background toggles a spoiler; every other colour code is dropped.
func Render(text string) string {
	w := &spanWriter{lineStart: true}

	prevEnd := 0
	for _, m := range formattingRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		w.write(text[prevEnd:start])
		prevEnd = end

		code := text[start]
		if mark, ok := toggles[code]; ok {
			w.toggle(mark)
			continue
		}

		switch code {
		case codeReset:
			w.open = w.open[:0]
		case codeColour:
			fg, bg := group(text, m, 1), group(text, m, 2)
			if sameColour(fg, bg) || w.isOpen(markSpoiler) {
				w.toggle(markSpoiler)
			}
		}
	}

	w.write(text[prevEnd:])
	w.open = w.open[:0]
	w.flush()
	return w.out.String()
}

func group(s string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}

// sameColour reports whether both colour indices are present and numerically
// equal, so "1,01" matches.
func sameColour(fg, bg string) bool {
	if fg == "" || bg == "" {
		return false
	}
	a, err := strconv.Atoi(fg)
	if err != nil {
		return false
	}
	b, err := strconv.Atoi(bg)
	if err != nil {
		return false
	}
	return a == b
}

// spanWriter tracks open markers and emits the minimal close/open delta
// whenever text is written.
type spanWriter struct {
	out strings.Builder

	// open is the marker list as currently toggled; emitted is the list
	// last written to out. Both keep opening order.
	open    []string
	emitted []string

	lineStart bool
}

func (w *spanWriter) isOpen(mark string) bool {
	return indexOf(w.open, mark) >= 0
}

func (w *spanWriter) toggle(mark string) {
	if i := indexOf(w.open, mark); i >= 0 {
		w.open = append(w.open[:i:i], w.open[i+1:]...)
		return
	}
	w.open = append(w.open, mark)
	// Re-opening a marker that restores the emitted set keeps the emitted
	// order, so nothing needs closing.
	if sameSet(w.open, w.emitted) {
		w.open = append(w.open[:0], w.emitted...)
	}
}

func (w *spanWriter) write(s string) {
	if s == "" {
		return
	}
	w.flush()
	if w.isOpen(markCode) {
		w.out.WriteString(s)
	} else {
		w.out.WriteString(escapeRun(s, w.lineStart))
	}
	w.lineStart = strings.HasSuffix(s, "\n")
}

func (w *spanWriter) flush() {
	if sameSet(w.open, w.emitted) {
		return
	}

	i := 0
	for i < len(w.open) && i < len(w.emitted) && w.open[i] == w.emitted[i] {
		i++
	}

	parts := make([]string, 0, len(w.emitted)-i+len(w.open)-i)
	for j := len(w.emitted) - 1; j >= i; j-- {
		parts = append(parts, w.emitted[j])
	}
	parts = append(parts, w.open[i:]...)
	w.out.WriteString(strings.Join(parts, markerJoin))

	w.emitted = append(w.emitted[:0], w.open...)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if indexOf(b, v) < 0 {
			return false
		}
	}
	return true
}
