package odds

import (
	"math"
	"testing"

	sonic "github.com/bytedance/sonic"
)

const sampleMarket = `[
  {"bookmakers": [
    {"id": 8, "name": "Bet365", "bets": [
      {"id": 1, "values": [{"value": "Home", "odd": "2.10"}]},
      {"id": 12, "values": [
        {"value": "Home/Draw", "odd": "1.40"},
        {"value": " draw/away ", "odd": "2.05"},
        {"value": "Home/Away", "odd": "bad"}
      ]}
    ]},
    {"id": 6, "name": "Bwin", "bets": [
      {"id": 12, "values": [{"value": "Home/Draw", "odd": "1.45"}]}
    ]}
  ]},
  {"bookmakers": [
    {"bets": [
      {"id": 5, "values": [
        {"value": "Over 2.5", "odd": "1.70"},
        {"value": "Under 3.5", "odd": 1.9}
      ]}
    ]}
  ]}
]`

func decodeMarket(t *testing.T, raw string) []any {
	t.Helper()
	var out []any
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		t.Fatalf("decode market: %v", err)
	}
	return out
}

func TestFindSelection(t *testing.T) {
	market := decodeMarket(t, sampleMarket)

	tests := []struct {
		name  string
		betID int
		match Matcher
		want  float64
		ok    bool
	}{
		{"first bookmaker wins", BetDoubleChance, Exact("home/draw"), 1.40, true},
		{"label trimmed and lowercased", BetDoubleChance, Exact("Draw/Away"), 2.05, true},
		{"exact does not match substring", BetDoubleChance, Exact("home"), 0, false},
		{"malformed odd", BetDoubleChance, Exact("home/away"), 0, false},
		{"goals substring", BetGoalsOverUnder, Contains("under 3.5"), 1.9, true},
		{"goals missing line", BetGoalsOverUnder, Contains("over 4.5"), 0, false},
		{"bet id filters", BetMatchWinner, Exact("home/draw"), 0, false},
		{"winner", BetMatchWinner, Exact("home"), 2.10, true},
		{"empty contains target never matches", BetGoalsOverUnder, Contains(""), 0, false},
		{"nil matcher", BetMatchWinner, nil, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FindSelection(market, tc.betID, tc.match)
			if ok != tc.ok {
				t.Fatalf("ok=%v want %v", ok, tc.ok)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("price=%v want %v", got, tc.want)
			}
		})
	}
}

func TestFindSelection_ToleratesMalformedNesting(t *testing.T) {
	market := []any{
		"not-an-object",
		map[string]any{"bookmakers": "nope"},
		map[string]any{"bookmakers": []any{
			map[string]any{"bets": []any{
				map[string]any{"id": "12", "values": []any{
					nil,
					map[string]any{"value": 42.0, "odd": "3"},
					map[string]any{"value": "Home/Draw", "odd": "0"},
				}},
			}},
		}},
		map[string]any{"bookmakers": []any{
			map[string]any{"bets": []any{
				map[string]any{"id": 12.0, "values": []any{
					map[string]any{"value": "Home/Draw", "odd": "1.33"},
				}},
			}},
		}},
	}

	if _, ok := FindSelection(market, BetDoubleChance, Exact("home/draw")); ok {
		t.Fatalf("zero odd should end the search without a price")
	}
	if got, ok := FindSelection(market, BetDoubleChance, Exact("42")); !ok || got != 3 {
		t.Fatalf("numeric label lookup: got (%v,%v)", got, ok)
	}
	if _, ok := FindSelection(nil, BetDoubleChance, Exact("home/draw")); ok {
		t.Fatalf("nil market must not match")
	}
}
