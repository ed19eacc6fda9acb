package snapshot

import (
	"time"

	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/prediction"
)

// EnrichedFixture is a fixture that carries a priced recommendation.
type EnrichedFixture struct {
	Fixture        fixture.Fixture
	Advice         string
	Price          float64
	Prediction     prediction.Prediction
	OutcomeCorrect *bool
}

// Snapshot is the published enrichment result for one date. It is never
// mutated after Publish; a rebuild publishes a new value.
type Snapshot struct {
	Date      string
	Pending   []EnrichedFixture
	Terminal  []EnrichedFixture
	Ready     bool
	BuiltAt   time.Time
	Total     int
	Discarded int
	Duration  time.Duration
}

func (s *Snapshot) Age(now time.Time) time.Duration {
	if s == nil || s.BuiltAt.IsZero() {
		return 0
	}
	age := now.Sub(s.BuiltAt)
	if age < 0 {
		return 0
	}
	return age
}

func (s *Snapshot) Stale(now time.Time, after time.Duration) bool {
	if s == nil || after <= 0 {
		return false
	}
	return s.Age(now) >= after
}
