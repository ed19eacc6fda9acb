package usecase

import (
	"time"

	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/odds"
)

func intPtr(v int) *int { return &v }

func testFixture(id int64, status string, kickoff time.Time) fixture.Fixture {
	return fixture.Fixture{
		ID:          id,
		League:      fixture.League{ID: 39, Name: "Premier League", Country: "England", Season: 2026},
		KickoffAt:   kickoff,
		StatusShort: status,
		Home:        fixture.Team{ID: 42, Name: "Arsenal"},
		Away:        fixture.Team{ID: 49, Name: "Chelsea"},
	}
}

func finishedFixture(id int64, home, away int) fixture.Fixture {
	f := testFixture(id, "FT", time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC))
	f.HomeGoals = intPtr(home)
	f.AwayGoals = intPtr(away)
	return f
}

// marketOf builds a provider-shaped odds response with a single bookmaker.
func marketOf(fixtureID int64, betID int, values ...[2]string) odds.Market {
	rows := make([]any, 0, len(values))
	for _, v := range values {
		rows = append(rows, map[string]any{"value": v[0], "odd": v[1]})
	}
	return odds.Market{
		FixtureID: fixtureID,
		BetID:     betID,
		Response: []any{
			map[string]any{
				"bookmakers": []any{
					map[string]any{
						"id":   float64(8),
						"name": "Bet365",
						"bets": []any{
							map[string]any{"id": float64(betID), "values": rows},
						},
					},
				},
			},
		},
	}
}
