// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/bulldogs/rpetracker/internal/app"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmitDependencies
	ReportDependencies
	NotifyDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	submitHandler *SubmitHandler
	reportHandler *ReportHandler
	notifyHandler *NotifyHandler

	allowedOrigin string
	logger        logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		allowedOrigin: "*",
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.submitHandler = NewSubmitHandler(deps, s.logger)
	s.reportHandler = NewReportHandler(deps, s.logger)
	s.notifyHandler = NewNotifyHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	routes := []struct {
		path     string
		endpoint string
		handler  http.HandlerFunc
	}{
		{"/healthz", "healthz", s.healthHandler.HandleHealth},
		{"/stats", "stats", s.statsHandler.HandleStats},
		{"/submit", "submit", s.submitHandler.HandleSubmit},
		{"/report/wide", "report_wide", s.reportHandler.HandleWide},
		{"/report/long", "report_long", s.reportHandler.HandleLong},
		{"/report/position-daily", "report_position_daily", s.reportHandler.HandlePositionDaily},
		{"/report/positions", "report_positions", s.reportHandler.HandlePositions},
		{"/report/summary", "report_summary", s.reportHandler.HandleSummary},
		{"/report/workload", "report_workload", s.reportHandler.HandleWorkload},
		{"/athletes/emails", "athletes_emails", s.reportHandler.HandleEmails},
		{"/reminders", "reminders", s.notifyHandler.HandleReminders},
		{"/reports/coach", "reports_coach", s.notifyHandler.HandleCoachReports},
	}
	for _, rt := range routes {
		h := MetricsMiddleware(rt.handler, rt.endpoint)
		if s.allowedOrigin != "" {
			h = CORSMiddleware(h, s.allowedOrigin)
		}
		mux.HandleFunc(rt.path, h)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure renders an upstream error; the cause is logged, not returned.
func writeFailure(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	if errors.Is(err, service.ErrNotStarted) {
		writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", NewKind(op, ErrInternal))
}

// nonNil keeps empty collections rendering as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
