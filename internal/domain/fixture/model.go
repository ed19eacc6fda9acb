package fixture

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

const (
	ResultHome = "home"
	ResultDraw = "draw"
	ResultAway = "away"
)

type Team struct {
	ID   int64
	Name string
	Logo string
}

type League struct {
	ID      int64
	Name    string
	Country string
	Logo    string
	Season  int
}

// Fixture represents one scheduled or completed match on a given date.
type Fixture struct {
	ID          int64
	League      League
	KickoffAt   time.Time
	StatusShort string
	StatusLong  string
	Elapsed     *int
	Home        Team
	Away        Team
	HomeGoals   *int
	AwayGoals   *int
}

func NormalizeStatus(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// IsTerminalStatus reports whether the match concluded with a final score.
func IsTerminalStatus(status string) bool {
	switch NormalizeStatus(status) {
	case "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case "1H", "HT", "2H", "ET", "BT", "P", "SUSP", "INT", "LIVE":
		return true
	default:
		return false
	}
}

func (f Fixture) Terminal() bool {
	return IsTerminalStatus(f.StatusShort)
}

func (f Fixture) Live() bool {
	return IsLiveStatus(f.StatusShort)
}

// Result returns home, away or draw once both goal counts are known.
func (f Fixture) Result() (string, bool) {
	if f.HomeGoals == nil || f.AwayGoals == nil {
		return "", false
	}
	switch {
	case *f.HomeGoals > *f.AwayGoals:
		return ResultHome, true
	case *f.AwayGoals > *f.HomeGoals:
		return ResultAway, true
	default:
		return ResultDraw, true
	}
}

func (f Fixture) TotalGoals() (int, bool) {
	if f.HomeGoals == nil || f.AwayGoals == nil {
		return 0, false
	}
	return *f.HomeGoals + *f.AwayGoals, true
}
