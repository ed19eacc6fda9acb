package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-advisor/external/apifootball"
	"github.com/riskibarqy/matchday-advisor/internal/config"
	"github.com/riskibarqy/matchday-advisor/internal/domain/fixture"
	"github.com/riskibarqy/matchday-advisor/internal/domain/odds"
	"github.com/riskibarqy/matchday-advisor/internal/domain/prediction"
	cacherepo "github.com/riskibarqy/matchday-advisor/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/matchday-advisor/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-advisor/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/matchday-advisor/internal/platform/cache"
	"github.com/riskibarqy/matchday-advisor/internal/platform/logging"
	"github.com/riskibarqy/matchday-advisor/internal/platform/resilience"
	"github.com/riskibarqy/matchday-advisor/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// App owns the long-lived pieces of the service: the snapshot scheduler and
// the read API server.
type App struct {
	cfg       config.Config
	logger    *logging.Logger
	server    *http.Server
	scheduler *usecase.SnapshotScheduler
	client    *apifootball.Client
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	if cfg.APIFootballKey == "" {
		return nil, fmt.Errorf("api-football key cannot be empty")
	}

	client := apifootball.NewClient(apifootball.ClientConfig{
		BaseURL:         cfg.APIFootballBaseURL,
		APIKey:          cfg.APIFootballKey,
		Timeout:         cfg.APIFootballTimeout,
		MaxRetries:      cfg.APIFootballMaxRetries,
		RetryDelay:      cfg.APIFootballRetryDelay,
		ErrorRetryDelay: cfg.APIFootballErrorRetryDelay,
		Governor:        resilience.NewRateGovernor(cfg.APIFootballRateLimit),
		Logger:          logger.Named("apifootball"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.APIFootballCircuitEnabled,
			FailureThreshold: cfg.APIFootballCircuitFailureCount,
			OpenTimeout:      cfg.APIFootballCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.APIFootballCircuitHalfOpenMaxReq,
		},
	})

	fixtureCache := basecache.NewStore[[]fixture.Fixture]("fixtures", cfg.CacheFixturesTTL)
	predictionCache := basecache.NewStore[prediction.Prediction]("prediction", cfg.CachePredictionsTTL)
	oddsCache := basecache.NewStore[odds.Market]("odds", cfg.CacheOddsTTL)

	fixtureRepo := cacherepo.NewFixtureRepository(client, fixtureCache)
	predictionRepo := cacherepo.NewPredictionRepository(client, predictionCache)
	oddsRepo := cacherepo.NewOddsRepository(client, oddsCache)
	snapshotRepo := memory.NewSnapshotRepository()

	usecaseLogger := logger.Named("usecase")
	resolver := usecase.NewAdviceResolver(oddsRepo, usecaseLogger)
	processor := usecase.NewFixtureProcessor(predictionRepo, resolver, usecaseLogger)
	runner := usecase.NewBatchRunner(fixtureRepo, processor, cfg.BatchWorkers, usecaseLogger)
	scheduler := usecase.NewSnapshotScheduler(runner, snapshotRepo, usecase.SnapshotSchedulerConfig{
		PastDays:         cfg.SnapshotPastDays,
		FutureDays:       cfg.SnapshotFutureDays,
		RefreshInterval:  cfg.SnapshotRefreshInterval,
		DateStagger:      cfg.SnapshotDateStagger,
		RecoveryInterval: cfg.SnapshotRecoveryInterval,
		Location:         cfg.SnapshotLocation,
	}, usecaseLogger, fixtureCache, predictionCache, oddsCache)

	queries := usecase.NewSnapshotQueryService(snapshotRepo, usecase.SnapshotQueryConfig{
		StaleAfter: cfg.SnapshotStaleAfter,
		Location:   cfg.SnapshotLocation,
		Window:     scheduler.WindowDates,
		Breaker:    client,
	}, fixtureCache, predictionCache, oddsCache)

	httpLogger := logger.Named("httpapi")
	handler := httpapi.NewHandler(queries, scheduler, httpLogger)
	router := httpapi.NewRouter(handler, httpLogger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	return &App{
		cfg:    cfg,
		logger: logger,
		server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		scheduler: scheduler,
		client:    client,
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves the read API and keeps snapshots fresh until ctx is cancelled,
// then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = a.scheduler.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok && err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}
	wg.Wait()

	stats := a.client.BreakerStats()
	a.logger.Info("http server stopped", "breaker_state", stats.State, "breaker_rejected", stats.Rejected)
	return runErr
}
