package httpapi

import (
	"time"

	"github.com/riskibarqy/matchday-advisor/internal/domain/snapshot"
	"github.com/riskibarqy/matchday-advisor/internal/usecase"
)

type dateViewDTO struct {
	Date     string       `json:"date"`
	Building bool         `json:"building"`
	BuiltAt  *time.Time   `json:"builtAt,omitempty"`
	Fixtures []fixtureDTO `json:"fixtures"`
}

type fixtureDTO struct {
	ID             int64         `json:"id"`
	KickoffAt      time.Time     `json:"kickoffAt"`
	Status         statusDTO     `json:"status"`
	League         leagueDTO     `json:"league"`
	Home           teamDTO       `json:"home"`
	Away           teamDTO       `json:"away"`
	Goals          goalsDTO      `json:"goals"`
	Advice         string        `json:"advice"`
	Price          float64       `json:"price"`
	Prediction     predictionDTO `json:"prediction"`
	OutcomeCorrect *bool         `json:"outcomeCorrect,omitempty"`
}

type statusDTO struct {
	Short   string `json:"short"`
	Long    string `json:"long,omitempty"`
	Elapsed *int   `json:"elapsed,omitempty"`
}

type leagueDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Logo    string `json:"logo,omitempty"`
	Season  int    `json:"season"`
}

type teamDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

type goalsDTO struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type predictionDTO struct {
	WinnerID   int64      `json:"winnerId,omitempty"`
	WinnerName string     `json:"winnerName,omitempty"`
	Percent    percentDTO `json:"percent"`
}

type percentDTO struct {
	Home int `json:"home"`
	Draw int `json:"draw"`
	Away int `json:"away"`
}

type cacheStatusDTO struct {
	Dates       map[string]dateStatusDTO `json:"dates"`
	CacheSizes  map[string]int           `json:"cacheSizes"`
	CacheReady  bool                     `json:"cacheReady"`
	CurrentTime time.Time                `json:"currentTime"`
	Upstream    *upstreamDTO             `json:"upstream,omitempty"`
}

type upstreamDTO struct {
	CircuitState        string `json:"circuitState"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	Rejected            int64  `json:"rejected"`
}

type dateStatusDTO struct {
	Ready         bool       `json:"ready"`
	PendingCount  int        `json:"pendingCount"`
	TerminalCount int        `json:"terminalCount"`
	Discarded     int        `json:"discarded"`
	AgeSeconds    int64      `json:"ageSeconds"`
	BuiltAt       *time.Time `json:"builtAt,omitempty"`
	Stale         bool       `json:"stale"`
}

type refreshDTO struct {
	Queued bool `json:"queued"`
}

func toDateViewDTO(view usecase.DateView, withOutcome bool) dateViewDTO {
	out := dateViewDTO{
		Date:     view.Date,
		Building: view.Building,
		BuiltAt:  timePtr(view.BuiltAt),
		Fixtures: make([]fixtureDTO, 0, len(view.Fixtures)),
	}
	for _, item := range view.Fixtures {
		dto := toFixtureDTO(item)
		if !withOutcome {
			dto.OutcomeCorrect = nil
		}
		out.Fixtures = append(out.Fixtures, dto)
	}
	return out
}

func toFixtureDTO(item snapshot.EnrichedFixture) fixtureDTO {
	f := item.Fixture
	return fixtureDTO{
		ID:        f.ID,
		KickoffAt: f.KickoffAt,
		Status: statusDTO{
			Short:   f.StatusShort,
			Long:    f.StatusLong,
			Elapsed: f.Elapsed,
		},
		League: leagueDTO{
			ID:      f.League.ID,
			Name:    f.League.Name,
			Country: f.League.Country,
			Logo:    f.League.Logo,
			Season:  f.League.Season,
		},
		Home:   teamDTO{ID: f.Home.ID, Name: f.Home.Name, Logo: f.Home.Logo},
		Away:   teamDTO{ID: f.Away.ID, Name: f.Away.Name, Logo: f.Away.Logo},
		Goals:  goalsDTO{Home: f.HomeGoals, Away: f.AwayGoals},
		Advice: item.Advice,
		Price:  item.Price,
		Prediction: predictionDTO{
			WinnerID:   item.Prediction.WinnerID,
			WinnerName: item.Prediction.WinnerName,
			Percent: percentDTO{
				Home: item.Prediction.Percent.Home,
				Draw: item.Prediction.Percent.Draw,
				Away: item.Prediction.Percent.Away,
			},
		},
		OutcomeCorrect: item.OutcomeCorrect,
	}
}

func toCacheStatusDTO(status usecase.CacheStatus) cacheStatusDTO {
	dates := make(map[string]dateStatusDTO, len(status.Dates))
	for _, item := range status.Dates {
		dates[item.Date] = dateStatusDTO{
			Ready:         item.Ready,
			PendingCount:  item.PendingCount,
			TerminalCount: item.TerminalCount,
			Discarded:     item.Discarded,
			AgeSeconds:    item.AgeSeconds,
			BuiltAt:       timePtr(item.BuiltAt),
			Stale:         item.Stale,
		}
	}
	sizes := status.CacheSizes
	if sizes == nil {
		sizes = map[string]int{}
	}
	out := cacheStatusDTO{
		Dates:       dates,
		CacheSizes:  sizes,
		CacheReady:  status.CacheReady,
		CurrentTime: status.CurrentTime,
	}
	if status.Upstream != nil {
		out.Upstream = &upstreamDTO{
			CircuitState:        string(status.Upstream.State),
			ConsecutiveFailures: status.Upstream.ConsecutiveFailures,
			Rejected:            status.Upstream.Rejected,
		}
	}
	return out
}

func timePtr(v time.Time) *time.Time {
	if v.IsZero() {
		return nil
	}
	return &v
}
