package sdk

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "scorekeeper/adapters/memory"
	"scorekeeper/api/httpapi"
	"scorekeeper/engine"
	"scorekeeper/export"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := engine.NewScoreService(mem.New(100), engine.NewEventBus(engine.DispatchSync), export.NewFormatter(export.Options{}), engine.Limits{}, nil)
	t.Cleanup(func() { _ = svc.Close() })
	h := httpapi.NewRouter(svc, httpapi.Options{PathPrefix: "/api", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SubmitTopExportHealth(t *testing.T) {
	srv := newTestServer(t)
	client, err := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithHeader("X-Request-ID", "sdk-test"))
	require.NoError(t, err)
	ctx := context.Background()

	id1, err := client.Submit(ctx, ScoreSubmission{PlayerName: "Ana", PlayerAge: "10 anos", PlayerSchool: "EMEF", Score: 90, Level: 3})
	require.NoError(t, err)
	id2, err := client.Submit(ctx, ScoreSubmission{PlayerName: "João", PlayerAge: "10 anos", PlayerSchool: "EMEF", Score: 150})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	top, err := client.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "João", top[0].PlayerName)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, id1, top[1].ID)

	top, err = client.Top(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	doc, err := client.Export(ctx, "csv", "en-US")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(doc.Filename, ".csv"))
	assert.Equal(t, "text/csv; charset=utf-8", doc.ContentType)
	assert.True(t, strings.HasPrefix(string(doc.Data), "Position,"))

	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "OK", health.Status)
	assert.Equal(t, 2, health.ScoresCount)
}

func TestClient_ValidationErrorIsAPIError(t *testing.T) {
	srv := newTestServer(t)
	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), ScoreSubmission{PlayerAge: "9", PlayerSchool: "EMEF", Score: 1})
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_input", apiErr.Code)

	_, err = client.Export(context.Background(), "pdf", "")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "unsupported_format", apiErr.Code)

	_, err = client.Export(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrEmptyFormat)
}

func TestClient_PathPrefix(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", WithPathPrefix("v2/"))
	require.NoError(t, err)
	top, err := client.Top(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, top)
	assert.Equal(t, "/v2/scores-math", seen)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	assert.Error(t, err)
}
