// Package command turns raw utterances into intents and (quantity, phrase)
// clauses. It has no dependencies and no side effects.
package command

import (
	"strings"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

// Classify maps an utterance to an intent. Prefix checks run before the
// checkout substring check, so "add a check out pen" is an add.
func Classify(utterance string) domain.Intent {
	u := strings.ToLower(strings.TrimSpace(utterance))
	switch {
	case strings.HasPrefix(u, "add"):
		return domain.IntentAdd
	case strings.HasPrefix(u, "remove"):
		return domain.IntentRemove
	case strings.Contains(u, "checkout"), strings.Contains(u, "check out"):
		return domain.IntentCheckout
	default:
		return domain.IntentUnknown
	}
}
