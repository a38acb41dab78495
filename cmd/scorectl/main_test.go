package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "scorekeeper/adapters/memory"
	"scorekeeper/api/httpapi"
	"scorekeeper/engine"
	"scorekeeper/export"
)

func startServer(t *testing.T) string {
	t.Helper()
	svc := engine.NewScoreService(mem.New(100), engine.NewEventBus(engine.DispatchSync), export.NewFormatter(export.Options{}), engine.Limits{}, nil)
	t.Cleanup(func() { _ = svc.Close() })
	srv := httptest.NewServer(httpapi.NewRouter(svc, httpapi.Options{PathPrefix: "/api", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"scorectl", "--server", url}, args...))
	return out.String(), err
}

func TestSubmitTopHealth(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "submit", "--name", "Ana", "--age", "10 anos", "--school", "EMEF", "--score", "90")
	require.NoError(t, err)
	assert.Equal(t, "saved score 1\n", out)
	_, err = run(t, url, "submit", "--name", "João", "--age", "10 anos", "--school", "EMEF", "--score", "150", "--level", "5")
	require.NoError(t, err)

	out, err = run(t, url, "top", "--limit", "5")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1 "))
	assert.Contains(t, lines[1], "João")

	out, err = run(t, url, "top", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"player_name": "Ana"`)

	out, err = run(t, url, "health")
	require.NoError(t, err)
	assert.Equal(t, "OK: server running (2 scores)\n", out)
}

func TestExportToDirectory(t *testing.T) {
	url := startServer(t)
	_, err := run(t, url, "submit", "--name", "Ana", "--age", "9", "--school", "EMEF", "--score", "7")
	require.NoError(t, err)

	dir := t.TempDir()
	out, err := run(t, url, "export", "--format", "csv", "--lang", "en-US", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote ")

	matches, err := filepath.Glob(filepath.Join(dir, "ranking-*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Position,Name"))

	out, err = run(t, url, "export", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana")
}

func TestSubmitValidationFailure(t *testing.T) {
	url := startServer(t)
	_, err := run(t, url, "submit", "--name", " ", "--age", "9", "--school", "EMEF", "--score", "7")
	assert.ErrorContains(t, err, "invalid_input")
}
