package statushttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mrshabel/bitkv/internal/engine"
	"github.com/stretchr/testify/require"
)

func TestHandleStatusReportsStats(t *testing.T) {
	dir := t.TempDir()
	store, err := engine.Open(dir, engine.DefaultConfig())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Set("k1", "v1"))

	srv := NewHTTPServer("127.0.0.1:0", store)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats engine.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 1, stats.LiveKeyCount)
}

func TestHandleHealthz(t *testing.T) {
	dir := t.TempDir()
	store, err := engine.Open(dir, engine.DefaultConfig())
	require.NoError(t, err)
	defer store.Close()

	srv := NewHTTPServer("127.0.0.1:0", store)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
