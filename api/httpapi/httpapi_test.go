package httpapi

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "scorekeeper/adapters/memory"
	"scorekeeper/core"
	"scorekeeper/engine"
	"scorekeeper/export"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestService(t *testing.T, repo engine.Repository) *engine.ScoreService {
	t.Helper()
	now := func() time.Time { return time.Date(2026, 10, 14, 13, 0, 0, 0, time.UTC) }
	svc := engine.NewScoreService(repo, engine.NewEventBus(engine.DispatchSync), export.NewFormatter(export.Options{}), engine.Limits{}, now)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func newTestRouter(t *testing.T, opts Options) (http.Handler, *engine.ScoreService) {
	t.Helper()
	svc := newTestService(t, mem.New(100))
	opts.Logger = quiet
	if opts.PathPrefix == "" {
		opts.PathPrefix = "/api"
	}
	return NewRouter(svc, opts), svc
}

func do(h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitAndList(t *testing.T) {
	h, _ := newTestRouter(t, Options{})
	for _, body := range []string{
		`{"playerName":"Ana","playerAge":"10 anos","playerSchool":"EMEF","score":90,"level":3}`,
		`{"playerName":"João","playerAge":"10 anos","playerSchool":"EMEF","score":150,"level":5}`,
		`{"playerName":"Bia","playerAge":"9 anos","playerSchool":"EMEF","score":90}`,
	} {
		rec := do(h, http.MethodPost, "/api/scores-math", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp submitResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotZero(t, resp.ID)
	}

	rec := do(h, http.MethodGet, "/api/scores-math", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var list []core.RankedRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "João", list[0].PlayerName)
	assert.Equal(t, "Ana", list[1].PlayerName)
	assert.Equal(t, "Bia", list[2].PlayerName)
	assert.Equal(t, 3, list[2].Rank)
	assert.Equal(t, int64(0), list[2].Level)

	rec = do(h, http.MethodGet, "/api/scores-math?limit=1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestListEmptyIsArray(t *testing.T) {
	h, _ := newTestRouter(t, Options{})
	rec := do(h, http.MethodGet, "/api/scores-math", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestListInvalidLimit(t *testing.T) {
	h, _ := newTestRouter(t, Options{})
	for _, q := range []string{"abc", "-1"} {
		rec := do(h, http.MethodGet, "/api/scores-math?limit="+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestSubmitValidation(t *testing.T) {
	h, svc := newTestRouter(t, Options{})
	rec := do(h, http.MethodPost, "/api/scores-math", `{"playerAge":"10","playerSchool":"EMEF","score":5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.False(t, apiErr.Success)
	assert.Equal(t, "invalid_input", apiErr.Code)
	assert.Equal(t, map[string]any{"field": "playerName", "reason": "is required"}, apiErr.Details)

	rec = do(h, http.MethodPost, "/api/scores-math", `{"playerName":"a","playerAge":"10","playerSchool":"EMEF"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/scores-math", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExportCSVWithHeaders(t *testing.T) {
	h, svc := newTestRouter(t, Options{})
	_, err := svc.Submit(context.Background(), core.Submission{PlayerName: "Ana", PlayerAge: "10", PlayerSchool: "EMEF", Score: core.Int64(7)})
	require.NoError(t, err)

	for _, target := range []string{"/api/scores-math/export?format=csv", "/api/scores-math/export/csv"} {
		rec := do(h, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=ranking-2026-10-14.csv`, rec.Header().Get("Content-Disposition"))
		rows, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Posição", rows[0][0])
	}
}

func TestExportLanguageSelection(t *testing.T) {
	h, _ := newTestRouter(t, Options{})
	rec := do(h, http.MethodGet, "/api/scores-math/export/text?lang=en-US", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No scores recorded.")

	req := httptest.NewRequest(http.MethodGet, "/api/scores-math/export/text", nil)
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9")
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
	assert.Contains(t, out.Body.String(), export.EuropeanSpanish.Labels.Empty)
}

func TestExportDefaultsToJSON(t *testing.T) {
	h, _ := newTestRouter(t, Options{})
	rec := do(h, http.MethodGet, "/api/scores-math/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["total_scores"])
}

func TestExportUnsupportedFormat(t *testing.T) {
	h, _ := newTestRouter(t, Options{})
	rec := do(h, http.MethodGet, "/api/scores-math/export/pdf", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "unsupported_format", apiErr.Code)
}

func TestHealth(t *testing.T) {
	h, svc := newTestRouter(t, Options{})
	_, err := svc.Submit(context.Background(), core.Submission{PlayerName: "Ana", PlayerAge: "10", PlayerSchool: "EMEF", Score: core.Int64(7)})
	require.NoError(t, err)
	rec := do(h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, 1, resp.ScoresCount)
}

type brokenRepo struct{}

func (brokenRepo) Insert(context.Context, core.ScoreRecord) (core.InsertResult, error) {
	return core.InsertResult{}, errors.New("db down")
}
func (brokenRepo) Ranked(context.Context, int) (core.Standings, error) {
	return core.Standings{}, errors.New("db down")
}
func (brokenRepo) Count(context.Context) (int, error) { return 0, errors.New("db down") }
func (brokenRepo) Close() error                       { return nil }

func TestStorageFailures(t *testing.T) {
	h := NewRouter(newTestService(t, brokenRepo{}), Options{PathPrefix: "/api", Logger: quiet})

	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(h, http.MethodGet, "/api/scores-math", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var apiErr apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "storage_error", apiErr.Code)
	assert.NotContains(t, rec.Body.String(), "db down")

	rec = do(h, http.MethodPost, "/api/scores-math", `{"playerName":"a","playerAge":"1","playerSchool":"s","score":1}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	h, _ := newTestRouter(t, Options{})
	rec := do(h, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	assert.Equal(t, "abc", out.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, Options{AllowCORSOrigin: "*"})
	rec := do(h, http.MethodOptions, "/api/scores-math", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	h, _ := newTestRouter(t, Options{RateLimitEnabled: true, RateLimitRPM: 1, RateLimitBurst: 2})
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodGet, "/health", "").Code)
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>jogo</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game.js"), []byte("console.log(1)"), 0o644))
	h, _ := newTestRouter(t, Options{StaticDir: dir})

	rec := do(h, http.MethodGet, "/game.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = do(h, http.MethodGet, "/ranking/turma-5b", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jogo")

	rec = do(h, http.MethodGet, "/api/scores-math", "")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestUnknownRouteWithoutStatic(t *testing.T) {
	h, _ := newTestRouter(t, Options{})
	rec := do(h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWithPrefix(t *testing.T) {
	assert.Equal(t, "/x", withPrefix("", "/x"))
	assert.Equal(t, "/x", withPrefix("/", "/x"))
	assert.Equal(t, "/api/x", withPrefix("api/", "/x"))
}
