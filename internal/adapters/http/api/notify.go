package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

const maxNotifyBody = 64 << 10

// NotifyDependencies defines the notification triggers.
type NotifyDependencies interface {
	SendReminders(ctx context.Context) (model.DispatchResult, error)
	SendCoachReports(ctx context.Context, coaches []string) (model.DispatchResult, error)
}

// NotifyHandler triggers reminder and coach report dispatch.
type NotifyHandler struct {
	deps   NotifyDependencies
	logger logger.Logger
}

// NewNotifyHandler creates a new notify handler.
func NewNotifyHandler(deps NotifyDependencies, log logger.Logger) *NotifyHandler {
	return &NotifyHandler{deps: deps, logger: log}
}

type coachReportRequest struct {
	Coaches []string `json:"coaches"`
}

// HandleReminders handles POST /reminders requests.
func (h *NotifyHandler) HandleReminders(w http.ResponseWriter, r *http.Request) {
	const op = "api.reminders"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.SendReminders(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCoachReports handles POST /reports/coach requests. The body is
// optional; without it the configured coaches receive the report.
func (h *NotifyHandler) HandleCoachReports(w http.ResponseWriter, r *http.Request) {
	const op = "api.reports_coach"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req coachReportRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotifyBody)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.SendCoachReports(r.Context(), req.Coaches)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
