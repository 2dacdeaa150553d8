package ircfmt

import (
	"regexp"
	"strings"
)

// escapeRe matches links (left alone) and markdown that would otherwise be
// interpreted by Discord. Backticks are deliberately absent so inline code
// typed by the user still renders as code.
var escapeRe = regexp.MustCompile(
	`(?m)(<[^: >]+:/[^ >]+>|(?:https?|steam)://[^\s<]+[^<.,:;"'\]\s])` +
		`|([_\\~|*]|^>(?:>>)?\s|\[.+\]\(.+\)|^#{1,3}|^\s*-)`,
)

// Escape backslash-escapes Discord markdown in s. URLs are not touched.
func Escape(s string) string {
	return escapeRun(s, true)
}

// escapeRun escapes a run of plain text. When the run does not begin a line,
// line-anchored markdown (quotes, headers, list items) is not matched at its
// start.
func escapeRun(s string, lineStart bool) string {
	if s == "" {
		return s
	}

	const pad = "x"
	if !lineStart {
		s = pad + s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	last := 0
	for _, m := range escapeRe.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(s[last:m[0]])
		if m[2] < 0 {
			b.WriteByte('\\')
		}
		b.WriteString(s[m[0]:m[1]])
		last = m[1]
	}
	b.WriteString(s[last:])

	out := b.String()
	if !lineStart {
		out = out[len(pad):]
	}
	return out
}
