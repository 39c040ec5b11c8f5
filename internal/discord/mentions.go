package discord

import (
	"strings"
	"unicode"
)

// Snowflakes are decimal and at most 20 digits long.
const (
	minSnowflakeLen = 15
	maxSnowflakeLen = 20
)

func isSnowflake(s string) bool {
	if len(s) < minSnowflakeLen || len(s) > maxSnowflakeLen {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// refID extracts an ID from a mention such as <#123> or from a bare ID.
// The second return is false when token is neither, so callers fall back
// to a name lookup.
func refID(token string, prefixes ...string) (string, bool) {
	token = strings.TrimSpace(token)
	if isSnowflake(token) {
		return token, true
	}
	if !strings.HasSuffix(token, ">") {
		return "", false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(token, p) {
			id := token[len(p) : len(token)-1]
			if isSnowflake(id) {
				return id, true
			}
		}
	}
	return "", false
}

func channelRef(token string) (string, bool) { return refID(token, "<#") }

func roleRef(token string) (string, bool) { return refID(token, "<@&") }

func userRef(token string) (string, bool) { return refID(token, "<@!", "<@") }

// plainName strips a leading sigil typed out of habit, e.g. "#general".
func plainName(token, sigil string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), sigil))
}
