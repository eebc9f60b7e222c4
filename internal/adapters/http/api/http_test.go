package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/bulldogs/rpetracker/internal/adapters/http/api"
	service "github.com/bulldogs/rpetracker/internal/app"
	"github.com/bulldogs/rpetracker/internal/domain/model"
)

var testDay = civil.Date{Year: 2025, Month: time.June, Day: 1}

// mockDependencies implements api.Dependencies with canned answers.
type mockDependencies struct {
	submitted   []model.Submission
	submitErr   error
	readErr     error
	minState    model.RiskState
	includeMiss bool
	coaches     []string
	samples     []model.WorkloadSample
	wide        []model.WideRow
}

func (m *mockDependencies) Submit(_ context.Context, sub model.Submission) (service.Receipt, error) {
	if m.submitErr != nil {
		return service.Receipt{}, m.submitErr
	}
	m.submitted = append(m.submitted, sub)
	return service.Receipt{ID: "job-1", Day: testDay, RowInserted: true}, nil
}

func (m *mockDependencies) Wide(context.Context) ([]model.WideRow, error) {
	return m.wide, m.readErr
}

func (m *mockDependencies) Long(_ context.Context, includeMissing bool) ([]model.Observation, error) {
	m.includeMiss = includeMissing
	return nil, m.readErr
}

func (m *mockDependencies) PositionDaily(context.Context) ([]model.PositionDailyAverage, error) {
	return []model.PositionDailyAverage{{Position: "WR", Date: testDay, Mean: model.Some(6), Samples: 2}}, m.readErr
}

func (m *mockDependencies) Positions(context.Context) ([]model.PositionAverage, error) {
	return []model.PositionAverage{{Position: "WR", Mean: model.Some(6), Athletes: 2}}, m.readErr
}

func (m *mockDependencies) Summary(context.Context) (model.TeamSummary, error) {
	return model.TeamSummary{Athletes: 2, TeamAverage: model.Some(6)}, m.readErr
}

func (m *mockDependencies) Workload(_ context.Context, minState model.RiskState) ([]model.WorkloadSample, error) {
	m.minState = minState
	return m.samples, m.readErr
}

func (m *mockDependencies) Emails(context.Context) ([]string, error) {
	return []string{"a@school.edu", "b@school.edu"}, m.readErr
}

func (m *mockDependencies) SendReminders(context.Context) (model.DispatchResult, error) {
	return model.DispatchResult{Sent: 2, Skipped: 1}, m.readErr
}

func (m *mockDependencies) SendCoachReports(_ context.Context, coaches []string) (model.DispatchResult, error) {
	m.coaches = coaches
	return model.DispatchResult{Sent: len(coaches)}, m.readErr
}

func (m *mockDependencies) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "queueLength": 0}
}

func newMux(deps *mockDependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

const validBody = `{"email":"a@school.edu","last4":"1234","lastName":"Avery","firstName":"Sam",` +
	`"position":"WR","summerAttendance":"yes","intensityLevel":"7"}`

func TestSubmitEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a valid submission is posted", func() {
			w := do(mux, http.MethodPost, "/submit", validBody)

			Convey("Then it is saved and acknowledged", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["message"], ShouldEqual, "Data saved successfully")
				So(resp["id"], ShouldEqual, "job-1")
				So(resp["day"], ShouldEqual, "2025-06-01")
				So(deps.submitted, ShouldHaveLength, 1)
				So(deps.submitted[0].Intensity, ShouldEqual, "7")
				So(deps.submitted[0].Last4, ShouldEqual, "1234")
			})
		})

		Convey("When intensityLevel and last4 are JSON numbers", func() {
			body := `{"email":"a@school.edu","last4":1234,"lastName":"Avery","firstName":"Sam",` +
				`"position":"WR","intensityLevel":8.5}`
			w := do(mux, http.MethodPost, "/submit", body)

			Convey("Then their literal text is kept", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.submitted[0].Intensity, ShouldEqual, "8.5")
				So(deps.submitted[0].Last4, ShouldEqual, "1234")
			})
		})

		Convey("When intensityLevel has the wrong JSON type", func() {
			w := do(mux, http.MethodPost, "/submit", `{"email":"a@school.edu","intensityLevel":true}`)

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.submitted, ShouldBeEmpty)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/submit", `not json`)

			Convey("Then a bad_request error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var resp map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["code"], ShouldEqual, "bad_request")
				So(resp["message"], ShouldStartWith, "api.submit: bad request")
			})
		})

		Convey("When the service rejects the submission", func() {
			deps.submitErr = fmt.Errorf("%w: %w", service.ErrInvalidSubmission, model.ErrMissingField)
			w := do(mux, http.MethodPost, "/submit", validBody)

			Convey("Then a 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "invalid submission")
			})
		})

		Convey("When the write queue is full", func() {
			deps.submitErr = service.ErrBusy
			w := do(mux, http.MethodPost, "/submit", validBody)

			Convey("Then a 429 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(w.Body.String(), ShouldContainSubstring, "backpressure")
			})
		})

		Convey("When the store fails", func() {
			deps.submitErr = errors.New("disk full")
			w := do(mux, http.MethodPost, "/submit", validBody)

			Convey("Then a 500 hides the cause", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldNotContainSubstring, "disk full")
			})
		})

		Convey("When the service is not started", func() {
			deps.submitErr = service.ErrNotStarted
			w := do(mux, http.MethodPost, "/submit", validBody)

			Convey("Then a 503 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When the wrong method is used", func() {
			w := do(mux, http.MethodGet, "/submit", "")

			Convey("Then the route is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("Given a server with a configured origin", t, func() {
		mux := newMux(&mockDependencies{}, api.WithAllowedOrigin("https://forms.example.edu"))

		Convey("When a preflight request arrives", func() {
			w := do(mux, http.MethodOptions, "/submit", "")

			Convey("Then it is answered without reaching the handler", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://forms.example.edu")
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, "POST")
			})
		})

		Convey("When a normal request arrives", func() {
			w := do(mux, http.MethodGet, "/report/summary", "")

			Convey("Then the CORS headers are present", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://forms.example.edu")
			})
		})
	})
}

func TestReportEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &mockDependencies{
			samples: []model.WorkloadSample{{Email: "a@school.edu", Ratio: 1.8, State: model.Elevated}},
		}
		mux := newMux(deps)

		Convey("When the workload is requested with a state filter", func() {
			w := do(mux, http.MethodGet, "/report/workload?state=Elevated", "")

			Convey("Then the filter is parsed and states render as names", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.minState, ShouldEqual, model.Elevated)
				So(w.Body.String(), ShouldContainSubstring, `"elevated"`)
			})
		})

		Convey("When the workload filter is unknown", func() {
			w := do(mux, http.MethodGet, "/report/workload?state=extreme", "")

			Convey("Then a 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the workload has no filter", func() {
			w := do(mux, http.MethodGet, "/report/workload", "")

			Convey("Then every state is included", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.minState, ShouldEqual, model.InsufficientData)
			})
		})

		Convey("When the long view is requested", func() {
			w := do(mux, http.MethodGet, "/report/long?include_missing=true", "")
			bad := do(mux, http.MethodGet, "/report/long?include_missing=maybe", "")

			Convey("Then include_missing is honored and empty results render as a list", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.includeMiss, ShouldBeTrue)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the wide view is requested", func() {
			deps.wide = []model.WideRow{{
				Identity:     model.Identity{Email: "a@school.edu"},
				Values:       map[civil.Date]float64{testDay: 7},
				AverageValue: model.Some(7),
			}}
			w := do(mux, http.MethodGet, "/report/wide", "")

			Convey("Then dates are keyed by ISO date", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"2025-06-01":7`)
				So(w.Body.String(), ShouldContainSubstring, `"averageValue":7`)
			})
		})

		Convey("When the remaining views are requested", func() {
			for _, path := range []string{"/report/position-daily", "/report/positions", "/report/summary", "/athletes/emails", "/stats"} {
				So(do(mux, http.MethodGet, path, "").Code, ShouldEqual, http.StatusOK)
			}
		})

		Convey("When the source fails", func() {
			deps.readErr = errors.New("sheet unavailable")
			w := do(mux, http.MethodGet, "/report/summary", "")

			Convey("Then a 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "internal")
			})
		})
	})
}

func TestNotifyEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When reminders are triggered", func() {
			w := do(mux, http.MethodPost, "/reminders", "")

			Convey("Then the dispatch counts are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res model.DispatchResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res, ShouldResemble, model.DispatchResult{Sent: 2, Skipped: 1})
			})
		})

		Convey("When coach reports are triggered without a body", func() {
			w := do(mux, http.MethodPost, "/reports/coach", "")

			Convey("Then the configured coaches are used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.coaches, ShouldBeNil)
			})
		})

		Convey("When coach reports are triggered with recipients", func() {
			w := do(mux, http.MethodPost, "/reports/coach", `{"coaches":["head@school.edu"]}`)

			Convey("Then the recipients are passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.coaches, ShouldResemble, []string{"head@school.edu"})
			})
		})

		Convey("When the coach body is malformed", func() {
			w := do(mux, http.MethodPost, "/reports/coach", `{"coaches":`)

			Convey("Then a 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When reminders are requested with GET", func() {
			So(do(mux, http.MethodGet, "/reminders", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		mux := newMux(&mockDependencies{})
		_ = do(mux, http.MethodGet, "/stats", "")

		Convey("When /healthz is scraped", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then the Prometheus exposition is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "rpe_tracker_http_requests_total")
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the error helpers", t, func() {
		cause := errors.New("boom")

		Convey("Then WrapKind matches both kind and cause", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then NewKind carries only the kind", func() {
			err := api.NewKind("api.op", api.ErrBackpressure)
			So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: backpressure")
		})

		Convey("Then Wrap keeps nil as nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: boom")
		})
	})
}

func TestCORSDisabled(t *testing.T) {
	Convey("Given a server with an empty origin", t, func() {
		mux := newMux(&mockDependencies{}, api.WithAllowedOrigin(""))

		Convey("Then no CORS headers are emitted", func() {
			w := do(mux, http.MethodGet, "/report/summary", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
		})
	})
}
