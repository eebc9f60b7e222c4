package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

// ReportDependencies defines the read side of the tracker.
type ReportDependencies interface {
	Wide(ctx context.Context) ([]model.WideRow, error)
	Long(ctx context.Context, includeMissing bool) ([]model.Observation, error)
	PositionDaily(ctx context.Context) ([]model.PositionDailyAverage, error)
	Positions(ctx context.Context) ([]model.PositionAverage, error)
	Summary(ctx context.Context) (model.TeamSummary, error)
	Workload(ctx context.Context, minState model.RiskState) ([]model.WorkloadSample, error)
	Emails(ctx context.Context) ([]string, error)
}

// ReportHandler serves the derived views of the response table.
type ReportHandler struct {
	deps   ReportDependencies
	logger logger.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies, log logger.Logger) *ReportHandler {
	return &ReportHandler{deps: deps, logger: log}
}

// HandleWide handles GET /report/wide requests.
func (h *ReportHandler) HandleWide(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_wide"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rows, err := h.deps.Wide(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

// HandleLong handles GET /report/long requests. include_missing=true keeps
// observations without a numeric rating.
func (h *ReportHandler) HandleLong(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_long"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	includeMissing := false
	if v := r.URL.Query().Get("include_missing"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		includeMissing = b
	}
	obs, err := h.deps.Long(r.Context(), includeMissing)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(obs))
}

// HandlePositionDaily handles GET /report/position-daily requests.
func (h *ReportHandler) HandlePositionDaily(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_position_daily"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	avgs, err := h.deps.PositionDaily(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(avgs))
}

// HandlePositions handles GET /report/positions requests.
func (h *ReportHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_positions"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	avgs, err := h.deps.Positions(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(avgs))
}

// HandleSummary handles GET /report/summary requests.
func (h *ReportHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	s, err := h.deps.Summary(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleWorkload handles GET /report/workload requests. state filters to
// samples at that risk state or higher.
func (h *ReportHandler) HandleWorkload(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_workload"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	minState := model.InsufficientData
	if v := r.URL.Query().Get("state"); v != "" {
		st, err := model.ParseRiskState(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		minState = st
	}
	samples, err := h.deps.Workload(r.Context(), minState)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(samples))
}

// HandleEmails handles GET /athletes/emails requests.
func (h *ReportHandler) HandleEmails(w http.ResponseWriter, r *http.Request) {
	const op = "api.athletes_emails"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	emails, err := h.deps.Emails(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(emails))
}
