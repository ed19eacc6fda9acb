package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchday-advisor/internal/platform/logging"
	"github.com/riskibarqy/matchday-advisor/internal/usecase"
)

// SnapshotReader serves published snapshots.
type SnapshotReader interface {
	Upcoming(ctx context.Context, date string) (usecase.DateView, error)
	Finished(ctx context.Context, date string) (usecase.DateView, error)
	CacheStatus(ctx context.Context) usecase.CacheStatus
}

// SnapshotRefresher wakes the background snapshot builder.
type SnapshotRefresher interface {
	TriggerRefresh() bool
}

type Handler struct {
	snapshots SnapshotReader
	refresher SnapshotRefresher
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(snapshots SnapshotReader, refresher SnapshotRefresher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		snapshots: snapshots,
		refresher: refresher,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type dateQuery struct {
	Date string `validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListUpcomingFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUpcomingFixtures")
	defer span.End()

	query := dateQuery{Date: r.URL.Query().Get("date")}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.snapshots.Upcoming(ctx, query.Date)
	if err != nil {
		h.logger.WarnContext(ctx, "list upcoming fixtures failed", "date", query.Date, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toDateViewDTO(view, false))
}

func (h *Handler) ListFinishedFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFinishedFixtures")
	defer span.End()

	query := dateQuery{Date: r.URL.Query().Get("date")}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.snapshots.Finished(ctx, query.Date)
	if err != nil {
		h.logger.WarnContext(ctx, "list finished fixtures failed", "date", query.Date, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toDateViewDTO(view, true))
}

func (h *Handler) GetCacheStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCacheStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, toCacheStatusDTO(h.snapshots.CacheStatus(ctx)))
}

func (h *Handler) RefreshSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshSnapshots")
	defer span.End()

	if h.refresher == nil {
		writeError(ctx, w, fmt.Errorf("%w: snapshot scheduler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	queued := h.refresher.TriggerRefresh()
	h.logger.InfoContext(ctx, "snapshot refresh requested", "queued", queued)

	writeSuccess(ctx, w, http.StatusAccepted, refreshDTO{Queued: queued})
}
