package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/odds"
	"github.com/riskibarqy/matchday-advisor/internal/domain/prediction"
	basecache "github.com/riskibarqy/matchday-advisor/internal/platform/cache"
)

// Feeds are the upstream calls each repository reads through to.
type (
	FixtureFeed interface {
		FetchFixturesByDate(ctx context.Context, date string) ([]fixture.Fixture, error)
	}
	PredictionFeed interface {
		FetchPrediction(ctx context.Context, fixtureID int64) (prediction.Prediction, bool, error)
	}
	OddsFeed interface {
		FetchOdds(ctx context.Context, fixtureID int64, betID int) (odds.Market, error)
	}
)

var errNoPrediction = errors.New("no prediction for fixture")

type FixtureRepository struct {
	next  FixtureFeed
	cache *basecache.Store[[]fixture.Fixture]
}

func NewFixtureRepository(next FixtureFeed, cache *basecache.Store[[]fixture.Fixture]) *FixtureRepository {
	return &FixtureRepository{next: next, cache: cache}
}

// ListByDate keeps non-empty lists only, so an empty day is asked again on
// the next cycle.
func (r *FixtureRepository) ListByDate(ctx context.Context, date string) ([]fixture.Fixture, error) {
	items, err := r.cache.GetOrLoad(ctx, date, func(ctx context.Context) ([]fixture.Fixture, bool, error) {
		items, err := r.next.FetchFixturesByDate(ctx, date)
		if err != nil {
			return nil, false, err
		}
		return append([]fixture.Fixture(nil), items...), len(items) > 0, nil
	})
	if err != nil {
		return nil, err
	}

	return append([]fixture.Fixture(nil), items...), nil
}

type PredictionRepository struct {
	next  PredictionFeed
	cache *basecache.Store[prediction.Prediction]
}

func NewPredictionRepository(next PredictionFeed, cache *basecache.Store[prediction.Prediction]) *PredictionRepository {
	return &PredictionRepository{next: next, cache: cache}
}

func (r *PredictionRepository) GetByFixture(ctx context.Context, fixtureID int64) (prediction.Prediction, bool, error) {
	key := strconv.FormatInt(fixtureID, 10)
	item, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (prediction.Prediction, bool, error) {
		item, found, err := r.next.FetchPrediction(ctx, fixtureID)
		if err != nil {
			return prediction.Prediction{}, false, err
		}
		if !found {
			return prediction.Prediction{}, false, errNoPrediction
		}
		return item, true, nil
	})
	if errors.Is(err, errNoPrediction) {
		return prediction.Prediction{}, false, nil
	}
	if err != nil {
		return prediction.Prediction{}, false, err
	}

	return item, true, nil
}

type OddsRepository struct {
	next  OddsFeed
	cache *basecache.Store[odds.Market]
}

func NewOddsRepository(next OddsFeed, cache *basecache.Store[odds.Market]) *OddsRepository {
	return &OddsRepository{next: next, cache: cache}
}

func (r *OddsRepository) GetMarket(ctx context.Context, fixtureID int64, betID int) (odds.Market, error) {
	return r.cache.GetOrLoad(ctx, oddsKey(fixtureID, betID), func(ctx context.Context) (odds.Market, bool, error) {
		market, err := r.next.FetchOdds(ctx, fixtureID, betID)
		if err != nil {
			return odds.Market{}, false, err
		}
		return market, !market.Empty(), nil
	})
}

func oddsKey(fixtureID int64, betID int) string {
	return fmt.Sprintf("%d:%d", fixtureID, betID)
}
