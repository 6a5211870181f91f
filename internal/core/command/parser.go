package command

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

// numberWords is the spoken quantity vocabulary. "to" maps to 2 because
// speech-to-text regularly transcribes "two" as "to"; it is a transcription
// heuristic, not grammar.
var numberWords = map[string]int{
	"zero":  0,
	"one":   1,
	"two":   2,
	"to":    2,
	"three": 3,
	"four":  4,
	"five":  5,
	"six":   6,
	"seven": 7,
	"eight": 8,
	"nine":  9,
	"ten":   10,
}

const allWord = "all"

var (
	conjunction = regexp.MustCompile(`\s+and\s+`)
	whitespace  = regexp.MustCompile(`\s+`)
	leadingVerb = regexp.MustCompile(`^(add|remove)(\s+|$)`)
	bareAll     = regexp.MustCompile(`^(?:add|remove)?\s*all$`)
	clauseRe    = regexp.MustCompile(
		`^(?:add|remove)?\s*(\d+|zero|one|two|to|three|four|five|six|seven|eight|nine|ten|all)\s+(.+)$`,
	)
)

// Parse splits an utterance into clauses and extracts a quantity and an item
// phrase from each. It returns nil only when no clause could be extracted.
func Parse(utterance string) []domain.ParsedClause {
	text := strings.ToLower(utterance)
	text = strings.ReplaceAll(text, ",", " and ")

	var clauses []domain.ParsedClause
	for _, part := range conjunction.Split(text, -1) {
		part = normalize(part)
		if part == "" {
			continue
		}
		if c, ok := parseClause(part); ok {
			clauses = append(clauses, c)
		}
	}
	return clauses
}

func parseClause(part string) (domain.ParsedClause, bool) {
	if m := clauseRe.FindStringSubmatch(part); m != nil {
		return domain.ParsedClause{
			Quantity: quantity(m[1]),
			Phrase:   normalize(m[2]),
		}, true
	}

	// "remove all" with nothing after it: the ALL sentinel with no item.
	if bareAll.MatchString(part) {
		return domain.ParsedClause{Quantity: domain.QuantityAll}, true
	}

	phrase := normalize(leadingVerb.ReplaceAllString(part, ""))
	if phrase == "" {
		return domain.ParsedClause{}, false
	}
	return domain.ParsedClause{Quantity: 1, Phrase: phrase}, true
}

func quantity(token string) int {
	if token == allWord {
		return domain.QuantityAll
	}
	if token[0] >= '0' && token[0] <= '9' {
		n, err := strconv.Atoi(token)
		if err != nil {
			// only overflow can fail here; the stock clamp bounds it later
			return math.MaxInt32
		}
		return n
	}
	if n, ok := numberWords[token]; ok {
		return n
	}
	return 1
}

func normalize(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
