package apifootball

import (
	"strings"
	"time"

	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/prediction"
)

type fixtureItem struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short   string `json:"short"`
			Long    string `json:"long"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
		Logo    string `json:"logo"`
		Season  int    `json:"season"`
	} `json:"league"`
	Teams struct {
		Home teamItem `json:"home"`
		Away teamItem `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type teamItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type predictionItem struct {
	Predictions struct {
		Winner struct {
			ID      int64  `json:"id"`
			Name    string `json:"name"`
			Comment string `json:"comment"`
		} `json:"winner"`
		Advice  string `json:"advice"`
		Percent struct {
			Home string `json:"home"`
			Draw string `json:"draw"`
			Away string `json:"away"`
		} `json:"percent"`
	} `json:"predictions"`
}

func (f fixtureItem) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID: f.Fixture.ID,
		League: fixture.League{
			ID:      f.League.ID,
			Name:    strings.TrimSpace(f.League.Name),
			Country: strings.TrimSpace(f.League.Country),
			Logo:    f.League.Logo,
			Season:  f.League.Season,
		},
		KickoffAt:   parseProviderDateTime(f.Fixture.Date),
		StatusShort: fixture.NormalizeStatus(f.Fixture.Status.Short),
		StatusLong:  strings.TrimSpace(f.Fixture.Status.Long),
		Elapsed:     f.Fixture.Status.Elapsed,
		Home:        f.Teams.Home.toDomain(),
		Away:        f.Teams.Away.toDomain(),
		HomeGoals:   f.Goals.Home,
		AwayGoals:   f.Goals.Away,
	}
}

func (t teamItem) toDomain() fixture.Team {
	return fixture.Team{ID: t.ID, Name: strings.TrimSpace(t.Name), Logo: t.Logo}
}

func (p predictionItem) toDomain(fixtureID int64) prediction.Prediction {
	return prediction.Prediction{
		FixtureID:  fixtureID,
		Advice:     strings.TrimSpace(p.Predictions.Advice),
		WinnerID:   p.Predictions.Winner.ID,
		WinnerName: strings.TrimSpace(p.Predictions.Winner.Name),
		Percent: prediction.Percentages{
			Home: prediction.ParsePercent(p.Predictions.Percent.Home),
			Draw: prediction.ParsePercent(p.Predictions.Percent.Draw),
			Away: prediction.ParsePercent(p.Predictions.Percent.Away),
		},
	}
}

func parseProviderDateTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
