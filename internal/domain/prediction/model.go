package prediction

import (
	"strconv"
	"strings"
)

// NoPick is the advice value the provider uses when it has no recommendation.
const NoPick = "—"

type Percentages struct {
	Home int
	Draw int
	Away int
}

// Prediction is the provider's forecast for one fixture.
type Prediction struct {
	FixtureID  int64
	Advice     string
	WinnerID   int64
	WinnerName string
	Percent    Percentages
}

func (p Prediction) HasAdvice() bool {
	advice := strings.TrimSpace(p.Advice)
	return advice != "" && advice != NoPick
}

// ParsePercent reads values like "45%". Malformed input yields 0.
func ParsePercent(raw string) int {
	value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if value == "" {
		return 0
	}
	out, err := strconv.ParseFloat(value, 64)
	if err != nil || out < 0 {
		return 0
	}
	if out > 100 {
		return 100
	}
	return int(out + 0.5)
}
