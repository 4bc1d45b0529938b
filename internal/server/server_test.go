package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/pipeline"
	"beacon/internal/store"
	"beacon/internal/triage"
)

type fakeRunner struct {
	summary *pipeline.Summary
	err     error
	calls   int
}

func (f *fakeRunner) Run(_ context.Context) (*pipeline.Summary, error) {
	f.calls++
	return f.summary, f.err
}

func newTestServer(t *testing.T, runner Runner) (*Server, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	if runner == nil {
		runner = &fakeRunner{summary: &pipeline.Summary{RunID: "run-1"}}
	}

	sc := NewServerContext(context.Background(), st, runner)
	return New(sc, "", nil, nil), st
}

func seedResult(t *testing.T, st *store.Store, fingerprint string, category triage.Category, score int) {
	t.Helper()

	err := st.SaveTriage(context.Background(), "run-1", &triage.Result{
		Fingerprint: fingerprint,
		MessageID:   "<" + fingerprint + "@example.com>",
		From:        "alice@example.com",
		Subject:     "Subject " + fingerprint,
		Date:        time.Now().Add(-time.Hour),
		Summary:     "Summary for " + fingerprint,
		Category:    category,
		Score:       score,
		AnalyzedAt:  time.Now(),
	})
	require.NoError(t, err)
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestDigestEmpty(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/digest")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DigestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestDigestOrderedByScore(t *testing.T) {
	s, st := newTestServer(t, nil)
	seedResult(t, st, "low", triage.CategoryNewsletter, 10)
	seedResult(t, st, "high", triage.CategoryWork, 90)
	seedResult(t, st, "mid", triage.CategoryWork, 50)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/digest")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DigestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, "high", resp.Results[0].Fingerprint)
	assert.Equal(t, "mid", resp.Results[1].Fingerprint)
	assert.Equal(t, "low", resp.Results[2].Fingerprint)
}

func TestDigestFilters(t *testing.T) {
	s, st := newTestServer(t, nil)
	seedResult(t, st, "news", triage.CategoryNewsletter, 20)
	seedResult(t, st, "work-low", triage.CategoryWork, 30)
	seedResult(t, st, "work-high", triage.CategoryWork, 80)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/digest?category=work&min_score=50")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DigestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "work-high", resp.Results[0].Fingerprint)
}

func TestDigestInvalidParams(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
	}{
		{"unknown category", "/api/v1/digest?category=spam"},
		{"min_score not a number", "/api/v1/digest?min_score=abc"},
		{"min_score out of range", "/api/v1/digest?min_score=150"},
		{"limit not positive", "/api/v1/digest?limit=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestMessageDetail(t *testing.T) {
	s, st := newTestServer(t, nil)
	seedResult(t, st, "abc123", triage.CategoryWork, 70)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/messages/abc123")
	require.Equal(t, http.StatusOK, rec.Code)

	var result triage.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "abc123", result.Fingerprint)
	assert.Equal(t, triage.CategoryWork, result.Category)
}

func TestMessageDetailNotFound(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/messages/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefresh(t *testing.T) {
	runner := &fakeRunner{summary: &pipeline.Summary{RunID: "run-42", Triaged: 7}}
	s, _ := newTestServer(t, runner)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/refresh")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary pipeline.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "run-42", summary.RunID)
	assert.Equal(t, 7, summary.Triaged)
	assert.Equal(t, 1, runner.calls)
}

func TestRefreshFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("provider unavailable")}
	s, _ := newTestServer(t, runner)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/refresh")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRefreshRequiresPost(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDigestPage(t *testing.T) {
	s, st := newTestServer(t, nil)
	seedResult(t, st, "page1", triage.CategoryWork, 85)

	rec := doRequest(t, s, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Subject page1")
	assert.Contains(t, rec.Body.String(), "alice@example.com")
}

func TestDigestPageEscapesContent(t *testing.T) {
	s, st := newTestServer(t, nil)
	err := st.SaveTriage(context.Background(), "run-1", &triage.Result{
		Fingerprint: "xss",
		From:        "mallory@example.com",
		Subject:     "<script>alert(1)</script>",
		Date:        time.Now(),
		Summary:     "harmless",
		Category:    triage.CategoryOther,
		Score:       50,
		AnalyzedAt:  time.Now(),
	})
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessAfterShutdown(t *testing.T) {
	s, _ := newTestServer(t, nil)
	require.NoError(t, s.sc.Shutdown())

	rec := doRequest(t, s, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, healthStatusNotReady, resp.Status)
	assert.Equal(t, healthStatusShuttingDown, resp.Checks["shutdown"])
}

func TestDigestLimit(t *testing.T) {
	s, st := newTestServer(t, nil)
	for i := 0; i < 5; i++ {
		seedResult(t, st, fmt.Sprintf("fp-%d", i), triage.CategoryWork, 50+i)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/digest?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DigestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestServerContextRefreshSerialized(t *testing.T) {
	runner := &fakeRunner{summary: &pipeline.Summary{RunID: "run-1"}}
	st, err := store.Open(filepath.Join(t.TempDir(), "ctx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	sc := NewServerContext(context.Background(), st, runner)

	for i := 0; i < 3; i++ {
		_, err := sc.Refresh(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, runner.calls)
}

func TestShutdownIdempotent(t *testing.T) {
	s, _ := newTestServer(t, nil)

	require.NoError(t, s.sc.Shutdown())
	require.NoError(t, s.sc.Shutdown())
	assert.True(t, s.sc.IsShutdown())

	select {
	case <-s.sc.Context().Done():
	default:
		t.Error("expected server context to be cancelled after shutdown")
	}
}
