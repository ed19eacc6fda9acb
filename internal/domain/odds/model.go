package odds

import (
	"math"
	"strconv"
	"strings"
)

// Bet type ids used by the provider's odds feed.
const (
	BetMatchWinner    = 1
	BetGoalsOverUnder = 5
	BetDoubleChance   = 12
)

// Market is one fixture's odds response for one bet type. Response keeps the
// provider's nesting (entry -> bookmakers -> bets -> values) as decoded
// generic JSON.
type Market struct {
	FixtureID int64
	BetID     int
	Response  []any
}

func (m Market) Empty() bool {
	return len(m.Response) == 0
}

// Matcher decides whether a normalized (trimmed, lowercased) selection label
// is the one being looked for.
type Matcher func(label string) bool

func Exact(target string) Matcher {
	target = normalizeLabel(target)
	return func(label string) bool {
		return label == target
	}
}

func Contains(target string) Matcher {
	target = normalizeLabel(target)
	return func(label string) bool {
		return target != "" && strings.Contains(label, target)
	}
}

// FindSelection walks the market in provider order and returns the price of
// the first selection of bet betID whose label satisfies match. Entries with
// an unexpected shape are skipped. A matching selection with an unusable odd
// ends the search with no price.
func FindSelection(market []any, betID int, match Matcher) (float64, bool) {
	if match == nil {
		return 0, false
	}
	for _, entry := range market {
		for _, bookmaker := range listAt(entry, "bookmakers") {
			for _, bet := range listAt(bookmaker, "bets") {
				id, ok := intAt(bet, "id")
				if !ok || id != betID {
					continue
				}
				for _, value := range listAt(bet, "values") {
					label, ok := stringAt(value, "value")
					if !ok || !match(normalizeLabel(label)) {
						continue
					}
					return parseOdd(fieldAt(value, "odd"))
				}
			}
		}
	}
	return 0, false
}

func normalizeLabel(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func fieldAt(node any, key string) any {
	obj, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	return obj[key]
}

func listAt(node any, key string) []any {
	items, _ := fieldAt(node, key).([]any)
	return items
}

func stringAt(node any, key string) (string, bool) {
	switch typed := fieldAt(node, key).(type) {
	case string:
		return typed, true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	default:
		return "", false
	}
}

func intAt(node any, key string) (int, bool) {
	switch typed := fieldAt(node, key).(type) {
	case float64:
		return int(typed), typed == math.Trunc(typed)
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case string:
		v, err := strconv.Atoi(strings.TrimSpace(typed))
		return v, err == nil
	default:
		return 0, false
	}
}

func parseOdd(raw any) (float64, bool) {
	var value float64
	switch typed := raw.(type) {
	case float64:
		value = typed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		value = parsed
	default:
		return 0, false
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, false
	}
	return value, true
}
