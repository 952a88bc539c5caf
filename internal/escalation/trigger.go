// Package escalation decides when a conversation needs a human and hands it
// to the operator.
package escalation

import "strings"

// Trigger matches lower-cased phrases against both sides of an exchange.
type Trigger struct {
	userPhrases []string
	botPhrases  []string
}

// NewTrigger normalizes the phrase lists. Empty phrases are dropped.
func NewTrigger(userPhrases, botPhrases []string) Trigger {
	return Trigger{userPhrases: normalize(userPhrases), botPhrases: normalize(botPhrases)}
}

// Fires reports whether inbound contains a user phrase or outbound contains a
// bot phrase, ignoring case. outbound may be empty.
func (t Trigger) Fires(inbound, outbound string) bool {
	return containsAny(strings.ToLower(inbound), t.userPhrases) ||
		containsAny(strings.ToLower(outbound), t.botPhrases)
}

func containsAny(text string, phrases []string) bool {
	if text == "" {
		return false
	}
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func normalize(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
