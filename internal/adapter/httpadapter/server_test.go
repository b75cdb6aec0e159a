package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborwatch/sector-scoring/internal/domain"
	"github.com/harborwatch/sector-scoring/internal/pipeline"
)

type stubPlanner struct {
	scenario *domain.Scenario
	err      error
	lastReq  pipeline.PlanRequest
}

func (p *stubPlanner) Run(_ context.Context, req pipeline.PlanRequest) (*domain.Scenario, error) {
	p.lastReq = req
	return p.scenario, p.err
}

type readyFunc func(context.Context) error

func (f readyFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

func testServer(planner PlanRunner, ready ReadinessChecker) *Server {
	if ready == nil {
		ready = readyFunc(func(context.Context) error { return nil })
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", planner, ready, logger)
}

func TestServer_CreatePlan_Success(t *testing.T) {
	planner := &stubPlanner{scenario: &domain.Scenario{RunID: "run-abc123", Mission: "balanced"}}
	srv := testServer(planner, nil)

	body := `{"mission":"balanced","origin":{"lat":10,"lon":120},"centerBearing":90,"halfAngle":45,"radiusNm":26}`
	req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got domain.Scenario
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "run-abc123", got.RunID)

	assert.Equal(t, "balanced", planner.lastReq.Mission)
	require.NotNil(t, planner.lastReq.Origin)
	assert.Equal(t, 10.0, planner.lastReq.Origin.Lat)
}

func TestServer_CreatePlan_InvalidSectorIs400(t *testing.T) {
	planner := &stubPlanner{err: domain.ErrInvalidSector}
	srv := testServer(planner, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CreatePlan_InvalidWeightsIs400(t *testing.T) {
	planner := &stubPlanner{err: domain.ErrInvalidWeights}
	srv := testServer(planner, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CreatePlan_MalformedBodyIs400(t *testing.T) {
	srv := testServer(&stubPlanner{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CreatePlan_UnexpectedErrorIs500(t *testing.T) {
	planner := &stubPlanner{err: errors.New("boom")}
	srv := testServer(planner, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_Healthz(t *testing.T) {
	srv := testServer(&stubPlanner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Readyz_NotReady(t *testing.T) {
	ready := readyFunc(func(context.Context) error { return errors.New("no samplers configured") })
	srv := testServer(&stubPlanner{}, ready)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no samplers configured")
}

func TestServer_Metrics(t *testing.T) {
	srv := testServer(&stubPlanner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
