package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/snapshot"
	"github.com/riskibarqy/matchday-advisor/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultBatchWorkers = 5
	maxBatchWorkers     = 16
	progressStepPercent = 20
)

// Processor enriches a single fixture.
type Processor interface {
	Process(ctx context.Context, f fixture.Fixture) (snapshot.EnrichedFixture, Verdict)
}

type BatchResult struct {
	Date            string
	Pending         []snapshot.EnrichedFixture
	Terminal        []snapshot.EnrichedFixture
	Total           int
	Discarded       int
	Duration        time.Duration
	DiscardsByStage map[string]int
}

type BatchRunner struct {
	fixtures  fixture.Repository
	processor Processor
	workers   int
	logger    *logging.Logger
	now       func() time.Time
}

func NewBatchRunner(fixtures fixture.Repository, processor Processor, workers int, logger *logging.Logger) *BatchRunner {
	if logger == nil {
		logger = logging.Default()
	}
	return &BatchRunner{
		fixtures:  fixtures,
		processor: processor,
		workers:   normalizeBatchWorkers(workers),
		logger:    logger,
		now:       time.Now,
	}
}

func normalizeBatchWorkers(n int) int {
	switch {
	case n <= 0:
		return defaultBatchWorkers
	case n > maxBatchWorkers:
		return maxBatchWorkers
	default:
		return n
	}
}

type batchOutcome struct {
	record  snapshot.EnrichedFixture
	verdict Verdict
}

// Run enriches every fixture of date. Only a failure to list the fixtures is
// an error; records that cannot be enriched are counted and left out.
func (r *BatchRunner) Run(ctx context.Context, date string) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BatchRunner.Run")
	defer span.End()

	date = strings.TrimSpace(date)
	if _, err := time.Parse(fixture.DateLayout, date); err != nil {
		return BatchResult{}, fmt.Errorf("%w: date must use YYYY-MM-DD", ErrInvalidInput)
	}

	start := r.now()
	items, err := r.fixtures.ListByDate(ctx, date)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list fixtures date=%s: %w", date, err)
	}
	span.SetAttributes(attribute.String("batch.date", date), attribute.Int("batch.total", len(items)))

	result := BatchResult{
		Date:            date,
		Pending:         make([]snapshot.EnrichedFixture, 0, len(items)),
		Terminal:        make([]snapshot.EnrichedFixture, 0, len(items)),
		Total:           len(items),
		DiscardsByStage: make(map[string]int),
	}
	r.logger.InfoContext(ctx, "batch started", "date", date, "total", len(items), "workers", r.workers)
	if len(items) == 0 {
		result.Duration = r.now().Sub(start)
		return result, nil
	}

	results := make(chan batchOutcome, len(items))

	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return BatchResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, item := range items {
		item := item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			record, verdict := r.processor.Process(ctx, item)
			results <- batchOutcome{record: record, verdict: verdict}
		}); err != nil {
			workers.Done()
			return BatchResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	go func() {
		workers.Wait()
		close(results)
	}()

	step := len(items) * progressStepPercent / 100
	if step < 1 {
		step = 1
	}
	done := 0
	for outcome := range results {
		done++
		if outcome.verdict.Accepted {
			if outcome.record.Fixture.Terminal() {
				result.Terminal = append(result.Terminal, outcome.record)
			} else {
				result.Pending = append(result.Pending, outcome.record)
			}
		} else {
			result.Discarded++
			result.DiscardsByStage[outcome.verdict.Stage]++
			if outcome.verdict.Err != nil {
				r.logger.DebugContext(ctx, "fixture discarded",
					"date", date,
					"stage", outcome.verdict.Stage,
					"error", outcome.verdict.Err,
				)
			}
		}
		if done%step == 0 || done == len(items) {
			r.logger.InfoContext(ctx, "batch progress",
				"date", date,
				"processed", done,
				"total", len(items),
				"percent", done*100/len(items),
			)
		}
	}

	sortEnriched(result.Pending)
	sortEnriched(result.Terminal)
	result.Duration = r.now().Sub(start)

	r.logger.InfoContext(ctx, "batch finished",
		"date", date,
		"total", result.Total,
		"pending", len(result.Pending),
		"terminal", len(result.Terminal),
		"discarded", result.Discarded,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func sortEnriched(items []snapshot.EnrichedFixture) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Fixture, items[j].Fixture
		if !a.KickoffAt.Equal(b.KickoffAt) {
			return a.KickoffAt.Before(b.KickoffAt)
		}
		return a.ID < b.ID
	})
}
