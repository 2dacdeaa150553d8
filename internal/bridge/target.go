package bridge

import (
	"strconv"
	"strings"
	"unicode"
)

// Destination is a Discord channel addressed by id. Building one never
// touches the network.
type Destination struct {
	ChannelID string
}

// resolveTarget turns an IRC target such as "#1234", "1234" or "<@!1234>"
// into a Destination.
func resolveTarget(target string) (Destination, bool) {
	id := strings.TrimFunc(target, func(r rune) bool {
		return strings.ContainsRune("#<@!>", r) || unicode.IsSpace(r)
	})
	if !isSnowflake(id) {
		return Destination{}, false
	}
	return Destination{ChannelID: id}, true
}

// isSnowflake reports whether s is a decimal Discord id.
func isSnowflake(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
