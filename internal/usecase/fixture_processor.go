package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/prediction"
	"github.com/riskibarqy/matchday-advisor/internal/domain/snapshot"
	"github.com/riskibarqy/matchday-advisor/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
)

// Discard stages reported by FixtureProcessor.
const (
	StageNoPrediction = "no_prediction"
	StageNoAdvice     = "no_advice"
	StageNoPrice      = "no_price"
	StagePanic        = "panic"
)

// Verdict tells whether a fixture made it into the snapshot and, if not,
// where it was dropped.
type Verdict struct {
	Accepted bool
	Stage    string
	Err      error
}

func discard(stage string, err error) Verdict {
	return Verdict{Stage: stage, Err: err}
}

type FixtureProcessor struct {
	predictions prediction.Repository
	resolver    *AdviceResolver
	logger      *logging.Logger
}

func NewFixtureProcessor(predictions prediction.Repository, resolver *AdviceResolver, logger *logging.Logger) *FixtureProcessor {
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureProcessor{predictions: predictions, resolver: resolver, logger: logger}
}

// Process enriches one fixture. Any failure, including a panic, is a
// discard and never an error for the caller.
func (p *FixtureProcessor) Process(ctx context.Context, f fixture.Fixture) (out snapshot.EnrichedFixture, verdict Verdict) {
	var pc panics.Catcher
	pc.Try(func() {
		out, verdict = p.process(ctx, f)
	})
	if recovered := pc.Recovered(); recovered != nil {
		p.logger.ErrorContext(ctx, "fixture processing panicked", "fixture_id", f.ID, "panic", recovered.String())
		return snapshot.EnrichedFixture{}, discard(StagePanic, fmt.Errorf("panic: %v", recovered.Value))
	}
	return out, verdict
}

func (p *FixtureProcessor) process(ctx context.Context, f fixture.Fixture) (snapshot.EnrichedFixture, Verdict) {
	pred, found, err := p.predictions.GetByFixture(ctx, f.ID)
	if err != nil {
		return snapshot.EnrichedFixture{}, discard(StageNoPrediction, err)
	}
	if !found {
		return snapshot.EnrichedFixture{}, discard(StageNoPrediction, nil)
	}
	if !pred.HasAdvice() {
		return snapshot.EnrichedFixture{}, discard(StageNoAdvice, nil)
	}

	resolution, ok := p.resolver.Resolve(ctx, f, pred.Advice)
	if !ok {
		return snapshot.EnrichedFixture{}, discard(StageNoPrice, nil)
	}

	out := snapshot.EnrichedFixture{
		Fixture:    f,
		Advice:     pred.Advice,
		Price:      resolution.Price,
		Prediction: pred,
	}
	if f.Terminal() {
		out.OutcomeCorrect = resolution.Spec.Outcome(f)
	}
	return out, Verdict{Accepted: true}
}
