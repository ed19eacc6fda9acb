package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/matchday-advisor/internal/domain/advice"
	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/odds"
	"github.com/riskibarqy/matchday-advisor/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// LegPrice is the price found for one leg of a recommendation.
type LegPrice struct {
	BetID     int
	Selection string
	Price     float64
}

// Resolution is a priced recommendation. Price is the product of all legs.
type Resolution struct {
	Spec  advice.Spec
	Price float64
	Legs  []LegPrice
}

type AdviceResolver struct {
	odds   odds.Repository
	logger *logging.Logger
}

func NewAdviceResolver(oddsRepo odds.Repository, logger *logging.Logger) *AdviceResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdviceResolver{odds: oddsRepo, logger: logger}
}

// Resolve parses adviceText against the fixture's teams and prices every
// leg. It returns false when the text cannot be parsed or any leg has no
// usable price.
func (r *AdviceResolver) Resolve(ctx context.Context, f fixture.Fixture, adviceText string) (Resolution, bool) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdviceResolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.Int64("fixture.id", f.ID))

	spec, ok := advice.Parse(adviceText, f.Home.Name, f.Away.Name)
	if !ok {
		r.logger.DebugContext(ctx, "advice not understood", "fixture_id", f.ID, "advice", adviceText)
		return Resolution{}, false
	}

	legs := spec.Legs()
	if len(legs) == 0 {
		return Resolution{}, false
	}

	out := Resolution{Spec: spec, Price: 1, Legs: make([]LegPrice, 0, len(legs))}
	for _, leg := range legs {
		price, err := r.priceLeg(ctx, f.ID, leg)
		if err != nil {
			r.logger.DebugContext(ctx, "advice leg not priced",
				"fixture_id", f.ID,
				"bet_id", leg.BetID,
				"selection", leg.Selection,
				"error", err,
			)
			return Resolution{}, false
		}
		out.Legs = append(out.Legs, LegPrice{BetID: leg.BetID, Selection: leg.Selection, Price: price})
		out.Price *= price
	}
	return out, true
}

func (r *AdviceResolver) priceLeg(ctx context.Context, fixtureID int64, leg advice.Leg) (float64, error) {
	market, err := r.odds.GetMarket(ctx, fixtureID, leg.BetID)
	if err != nil {
		return 0, fmt.Errorf("get odds market: %w", err)
	}
	if market.Empty() {
		return 0, fmt.Errorf("%w: empty odds market", ErrNotFound)
	}
	price, ok := odds.FindSelection(market.Response, leg.BetID, leg.Match)
	if !ok {
		return 0, fmt.Errorf("%w: selection %q", ErrNotFound, leg.Selection)
	}
	return price, nil
}
