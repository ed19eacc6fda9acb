package advice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/odds"
	"github.com/riskibarqy/matchday-advisor/internal/domain/prediction"
)

type Kind string

const (
	KindWinner       Kind = "winner"
	KindDoubleChance Kind = "double_chance"
	KindCombo        Kind = "combo"
)

const (
	DirectionUnder = "under"
	DirectionOver  = "over"
)

// Selection labels as they appear in the odds feed, lowercased.
const (
	SelectionHome     = "home"
	SelectionAway     = "away"
	SelectionHomeDraw = "home/draw"
	SelectionDrawAway = "draw/away"
	SelectionHomeAway = "home/away"
)

var comboPattern = regexp.MustCompile(`combo double chance\s*:\s*(.+?)\s+and\s+([+-]\d+(\.\d+)?)\s*goals`)

// Spec is a parsed recommendation. Winner and double chance use Selection;
// a combo uses DoubleChance together with the goals fields.
type Spec struct {
	Kind         Kind
	Selection    string
	DoubleChance string
	GoalsLine    string
	Threshold    float64
	Direction    string
}

// Leg is one market lookup needed to price a Spec.
type Leg struct {
	BetID     int
	Selection string
	Match     odds.Matcher
}

// Parse turns free advice text into a Spec using the fixture's team names.
// Anything outside the known grammar, or with team names that cannot be
// placed, is rejected.
func Parse(text, homeName, awayName string) (Spec, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == prediction.NoPick {
		return Spec{}, false
	}

	lower := strings.ToLower(trimmed)
	home := strings.ToLower(strings.TrimSpace(homeName))
	away := strings.ToLower(strings.TrimSpace(awayName))

	if strings.Contains(lower, "combo") {
		return parseCombo(lower, home, away)
	}

	if strings.Contains(lower, "double chance") {
		selection, ok := doubleChanceSelection(lower, home, away)
		if !ok {
			return Spec{}, false
		}
		return Spec{Kind: KindDoubleChance, Selection: selection}, true
	}

	if strings.Contains(lower, "winner") {
		switch {
		case containsName(lower, home):
			return Spec{Kind: KindWinner, Selection: SelectionHome}, true
		case containsName(lower, away):
			return Spec{Kind: KindWinner, Selection: SelectionAway}, true
		default:
			return Spec{}, false
		}
	}

	return Spec{}, false
}

func parseCombo(lower, home, away string) (Spec, bool) {
	m := comboPattern.FindStringSubmatch(lower)
	if m == nil {
		return Spec{}, false
	}

	dc, ok := doubleChanceSelection(strings.TrimSpace(m[1]), home, away)
	if !ok {
		return Spec{}, false
	}

	signed := strings.TrimSpace(m[2])
	var direction string
	switch signed[0] {
	case '-':
		direction = DirectionUnder
	case '+':
		direction = DirectionOver
	default:
		return Spec{}, false
	}
	magnitude := signed[1:]
	threshold, err := strconv.ParseFloat(magnitude, 64)
	if err != nil {
		return Spec{}, false
	}

	return Spec{
		Kind:         KindCombo,
		DoubleChance: dc,
		GoalsLine:    direction + " " + magnitude,
		Threshold:    threshold,
		Direction:    direction,
	}, true
}

// doubleChanceSelection checks home+draw first, then away+draw, then both
// names. Substring containment is kept as is even though a name can appear
// inside the other.
func doubleChanceSelection(clause, home, away string) (string, bool) {
	hasHome := containsName(clause, home)
	hasAway := containsName(clause, away)
	hasDraw := strings.Contains(clause, "draw")

	switch {
	case hasHome && hasDraw:
		return SelectionHomeDraw, true
	case hasAway && hasDraw:
		return SelectionDrawAway, true
	case hasHome && hasAway:
		return SelectionHomeAway, true
	default:
		return "", false
	}
}

func containsName(text, name string) bool {
	return name != "" && strings.Contains(text, name)
}

// Legs lists the market lookups needed to price the spec, in lookup order.
func (s Spec) Legs() []Leg {
	switch s.Kind {
	case KindWinner:
		return []Leg{{BetID: odds.BetMatchWinner, Selection: s.Selection, Match: odds.Exact(s.Selection)}}
	case KindDoubleChance:
		return []Leg{{BetID: odds.BetDoubleChance, Selection: s.Selection, Match: odds.Exact(s.Selection)}}
	case KindCombo:
		return []Leg{
			{BetID: odds.BetDoubleChance, Selection: s.DoubleChance, Match: odds.Exact(s.DoubleChance)},
			{BetID: odds.BetGoalsOverUnder, Selection: s.GoalsLine, Match: odds.Contains(s.GoalsLine)},
		}
	default:
		return nil
	}
}

// Outcome compares the spec against the final score. nil means the result
// cannot be decided yet.
func (s Spec) Outcome(f fixture.Fixture) *bool {
	result, ok := f.Result()
	if !ok {
		return nil
	}
	total, _ := f.TotalGoals()

	var correct bool
	switch s.Kind {
	case KindWinner:
		correct = result == s.Selection
	case KindDoubleChance:
		correct = doubleChanceHolds(s.Selection, result)
	case KindCombo:
		correct = doubleChanceHolds(s.DoubleChance, result) && goalsHold(s.Direction, s.Threshold, total)
	default:
		return nil
	}
	return &correct
}

func doubleChanceHolds(selection, result string) bool {
	switch selection {
	case SelectionHomeDraw:
		return result == fixture.ResultHome || result == fixture.ResultDraw
	case SelectionDrawAway:
		return result == fixture.ResultAway || result == fixture.ResultDraw
	case SelectionHomeAway:
		return result == fixture.ResultHome || result == fixture.ResultAway
	default:
		return false
	}
}

func goalsHold(direction string, threshold float64, total int) bool {
	switch direction {
	case DirectionUnder:
		return float64(total) < threshold
	case DirectionOver:
		return float64(total) > threshold
	default:
		return false
	}
}
