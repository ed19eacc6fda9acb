package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-advisor/internal/domain/odds"
	"github.com/riskibarqy/matchday-advisor/internal/domain/prediction"
	oddsmock "github.com/riskibarqy/matchday-advisor/internal/mocks/domain/odds"
	predictionmock "github.com/riskibarqy/matchday-advisor/internal/mocks/domain/prediction"
	"github.com/riskibarqy/matchday-advisor/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func newTestProcessor(predRepo prediction.Repository, oddsRepo odds.Repository) *FixtureProcessor {
	logger := logging.NewNop()
	return NewFixtureProcessor(predRepo, NewAdviceResolver(oddsRepo, logger), logger)
}

func TestFixtureProcessor_AcceptsPendingFixture(t *testing.T) {
	t.Parallel()

	predRepo := predictionmock.NewRepository(t)
	oddsRepo := oddsmock.NewRepository(t)
	pred := prediction.Prediction{FixtureID: 1, Advice: "Winner : Arsenal", WinnerID: 42, WinnerName: "Arsenal"}
	predRepo.On("GetByFixture", mock.Anything, int64(1)).Return(pred, true, nil).Once()
	oddsRepo.On("GetMarket", mock.Anything, int64(1), odds.BetMatchWinner).
		Return(marketOf(1, odds.BetMatchWinner, [2]string{"Home", "1.85"}), nil).
		Once()

	f := testFixture(1, "NS", time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC))
	got, verdict := newTestProcessor(predRepo, oddsRepo).Process(context.Background(), f)
	if !verdict.Accepted {
		t.Fatalf("expected fixture to be accepted, got stage %q", verdict.Stage)
	}
	if got.Price != 1.85 || got.Advice != pred.Advice || got.Prediction.WinnerName != "Arsenal" {
		t.Fatalf("unexpected enriched fixture: %+v", got)
	}
	if got.OutcomeCorrect != nil {
		t.Fatalf("pending fixture must not carry an outcome")
	}
}

func TestFixtureProcessor_TerminalOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		advice string
		betID  int
		label  string
		home   int
		away   int
		want   bool
	}{
		{name: "winner home correct", advice: "Winner : Arsenal", betID: odds.BetMatchWinner, label: "Home", home: 2, away: 1, want: true},
		{name: "winner home wrong", advice: "Winner : Arsenal", betID: odds.BetMatchWinner, label: "Home", home: 0, away: 0, want: false},
		{name: "double chance away or draw wrong", advice: "Double chance : Chelsea or draw", betID: odds.BetDoubleChance, label: "Draw/Away", home: 2, away: 1, want: false},
		{name: "double chance away or draw on draw", advice: "Double chance : Chelsea or draw", betID: odds.BetDoubleChance, label: "Draw/Away", home: 1, away: 1, want: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			predRepo := predictionmock.NewRepository(t)
			oddsRepo := oddsmock.NewRepository(t)
			predRepo.On("GetByFixture", mock.Anything, int64(5)).
				Return(prediction.Prediction{FixtureID: 5, Advice: tc.advice}, true, nil).
				Once()
			oddsRepo.On("GetMarket", mock.Anything, int64(5), tc.betID).
				Return(marketOf(5, tc.betID, [2]string{tc.label, "1.50"}), nil).
				Once()

			got, verdict := newTestProcessor(predRepo, oddsRepo).Process(context.Background(), finishedFixture(5, tc.home, tc.away))
			if !verdict.Accepted {
				t.Fatalf("expected fixture to be accepted, got stage %q", verdict.Stage)
			}
			if got.OutcomeCorrect == nil {
				t.Fatalf("terminal fixture with a score must carry an outcome")
			}
			if *got.OutcomeCorrect != tc.want {
				t.Fatalf("unexpected outcome: got=%v want=%v", *got.OutcomeCorrect, tc.want)
			}
		})
	}
}

func TestFixtureProcessor_ComboOutcomeNeedsBothLegs(t *testing.T) {
	t.Parallel()

	predRepo := predictionmock.NewRepository(t)
	oddsRepo := oddsmock.NewRepository(t)
	predRepo.On("GetByFixture", mock.Anything, int64(6)).
		Return(prediction.Prediction{FixtureID: 6, Advice: "Combo Double chance : Arsenal or draw and -2.5 goals"}, true, nil).
		Once()
	oddsRepo.On("GetMarket", mock.Anything, int64(6), odds.BetDoubleChance).
		Return(marketOf(6, odds.BetDoubleChance, [2]string{"Home/Draw", "1.40"}), nil).
		Once()
	oddsRepo.On("GetMarket", mock.Anything, int64(6), odds.BetGoalsOverUnder).
		Return(marketOf(6, odds.BetGoalsOverUnder, [2]string{"Under 2.5", "1.90"}), nil).
		Once()

	// Home win holds the double chance leg but 3 goals breaks the under leg.
	got, verdict := newTestProcessor(predRepo, oddsRepo).Process(context.Background(), finishedFixture(6, 2, 1))
	if !verdict.Accepted {
		t.Fatalf("expected fixture to be accepted, got stage %q", verdict.Stage)
	}
	if got.OutcomeCorrect == nil || *got.OutcomeCorrect {
		t.Fatalf("combo with a broken goals leg must be incorrect")
	}
}

func TestFixtureProcessor_Discards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		pred      prediction.Prediction
		found     bool
		err       error
		wantStage string
	}{
		{name: "lookup error", err: errors.New("boom"), wantStage: StageNoPrediction},
		{name: "no prediction", found: false, wantStage: StageNoPrediction},
		{name: "sentinel advice", pred: prediction.Prediction{Advice: prediction.NoPick}, found: true, wantStage: StageNoAdvice},
		{name: "blank advice", pred: prediction.Prediction{Advice: "  "}, found: true, wantStage: StageNoAdvice},
		{name: "unparseable advice", pred: prediction.Prediction{Advice: "Winner : Tottenham"}, found: true, wantStage: StageNoPrice},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			predRepo := predictionmock.NewRepository(t)
			oddsRepo := oddsmock.NewRepository(t)
			predRepo.On("GetByFixture", mock.Anything, int64(8)).Return(tc.pred, tc.found, tc.err).Once()

			_, verdict := newTestProcessor(predRepo, oddsRepo).Process(context.Background(), testFixture(8, "NS", time.Now()))
			if verdict.Accepted {
				t.Fatalf("expected discard")
			}
			if verdict.Stage != tc.wantStage {
				t.Fatalf("unexpected stage: got=%q want=%q", verdict.Stage, tc.wantStage)
			}
		})
	}
}

type panickingPredictions struct{}

func (panickingPredictions) GetByFixture(context.Context, int64) (prediction.Prediction, bool, error) {
	panic("corrupt record")
}

func TestFixtureProcessor_RecoversPanic(t *testing.T) {
	t.Parallel()

	oddsRepo := oddsmock.NewRepository(t)
	_, verdict := newTestProcessor(panickingPredictions{}, oddsRepo).Process(context.Background(), testFixture(3, "NS", time.Now()))
	if verdict.Accepted || verdict.Stage != StagePanic {
		t.Fatalf("expected panic discard, got %+v", verdict)
	}
	if verdict.Err == nil {
		t.Fatalf("expected panic to be reported as an error")
	}
}
