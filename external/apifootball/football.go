package apifootball

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/odds"
	"github.com/riskibarqy/matchday-advisor/internal/domain/prediction"
)

func (c *Client) FetchFixturesByDate(ctx context.Context, date string) ([]fixture.Fixture, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(fixture.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid fixture date %q: %w", date, err)
	}

	raw, err := c.Fetch(ctx, "/fixtures", url.Values{"date": []string{date}})
	if err != nil {
		return nil, err
	}

	var items []fixtureItem
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode fixtures date=%s: %w", date, err)
	}

	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		if item.Fixture.ID <= 0 {
			continue
		}
		out = append(out, item.toDomain())
	}
	return out, nil
}

// FetchPrediction returns found=false when the provider has no prediction
// for the fixture.
func (c *Client) FetchPrediction(ctx context.Context, fixtureID int64) (prediction.Prediction, bool, error) {
	if fixtureID <= 0 {
		return prediction.Prediction{}, false, fmt.Errorf("fixture id must be greater than zero")
	}

	raw, err := c.Fetch(ctx, "/predictions", url.Values{"fixture": []string{strconv.FormatInt(fixtureID, 10)}})
	if err != nil {
		return prediction.Prediction{}, false, err
	}

	var items []predictionItem
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("decode prediction fixture_id=%d: %w", fixtureID, err)
	}
	if len(items) == 0 {
		return prediction.Prediction{}, false, nil
	}
	return items[0].toDomain(fixtureID), true, nil
}

// FetchOdds returns the odds response for one bet type, kept as generic JSON
// for odds.FindSelection.
func (c *Client) FetchOdds(ctx context.Context, fixtureID int64, betID int) (odds.Market, error) {
	if fixtureID <= 0 || betID <= 0 {
		return odds.Market{}, fmt.Errorf("fixture id and bet id must be greater than zero")
	}

	raw, err := c.Fetch(ctx, "/odds", url.Values{
		"fixture": []string{strconv.FormatInt(fixtureID, 10)},
		"bet":     []string{strconv.Itoa(betID)},
	})
	if err != nil {
		return odds.Market{}, err
	}

	var response []any
	if err := sonic.Unmarshal(raw, &response); err != nil {
		return odds.Market{}, fmt.Errorf("decode odds fixture_id=%d bet=%d: %w", fixtureID, betID, err)
	}
	return odds.Market{FixtureID: fixtureID, BetID: betID, Response: response}, nil
}
