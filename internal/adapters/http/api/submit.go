package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/bulldogs/rpetracker/internal/app"
	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

const maxSubmitBody = 1 << 20

// SubmitDependencies defines what the submit handler needs.
type SubmitDependencies interface {
	Submit(ctx context.Context, sub model.Submission) (service.Receipt, error)
}

// SubmitHandler handles form submissions.
type SubmitHandler struct {
	deps   SubmitDependencies
	logger logger.Logger
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps SubmitDependencies, log logger.Logger) *SubmitHandler {
	return &SubmitHandler{deps: deps, logger: log}
}

// text accepts a JSON string or number and keeps its literal text.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*t = text(n.String())
	return nil
}

// submitRequest mirrors the form's JSON body.
type submitRequest struct {
	Email            string `json:"email"`
	Last4            text   `json:"last4"`
	LastName         string `json:"lastName"`
	FirstName        string `json:"firstName"`
	Position         string `json:"position"`
	SummerAttendance string `json:"summerAttendance"`
	IntensityLevel   text   `json:"intensityLevel"`
}

func (r submitRequest) submission() model.Submission {
	return model.Submission{
		Identity: model.Identity{
			Email:            r.Email,
			Last4:            string(r.Last4),
			LastName:         r.LastName,
			FirstName:        r.FirstName,
			Position:         r.Position,
			SummerAttendance: r.SummerAttendance,
		},
		Intensity: string(r.IntensityLevel),
	}
}

type submitResponse struct {
	Message string `json:"message"`
	service.Receipt
}

// HandleSubmit handles POST /submit requests.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, err := h.deps.Submit(r.Context(), req.submission())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, submitResponse{Message: "Data saved successfully", Receipt: receipt})
	case errors.Is(err, service.ErrInvalidSubmission):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrBusy):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	default:
		writeFailure(r.Context(), w, h.logger, op, err)
	}
}
