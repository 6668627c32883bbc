package cmd

import (
	"encoding/json"
	"ftpsched/internal/config"
	"ftpsched/internal/db"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDaemon(t *testing.T, handler http.HandlerFunc) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg = &config.Config{DaemonPort: port}
}

func TestRequestSendsJSONAndDecodes(t *testing.T) {
	fakeDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/schedule", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{"time": body["time"]})
	})

	var out map[string]string
	require.NoError(t, request(http.MethodPut, "/schedule", map[string]string{"time": "07:00:00"}, &out))
	assert.Equal(t, "07:00:00", out["time"])
}

func TestRequestSurfacesDaemonError(t *testing.T) {
	fakeDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "a sync batch is already running"})
	})

	err := request(http.MethodPost, "/sync", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "a sync batch is already running", err.Error())
}

func TestRequestNoContent(t *testing.T) {
	fakeDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	var out map[string]string
	assert.NoError(t, request(http.MethodDelete, "/log", nil, &out))
}

func TestNeedsDB(t *testing.T) {
	assert.True(t, needsDB(&cobra.Command{Use: "run"}))
	assert.False(t, needsDB(&cobra.Command{Use: "status"}))

	syncLocal = true
	defer func() { syncLocal = false }()
	assert.True(t, needsDB(&cobra.Command{Use: "sync"}))
}

func TestCloseDBReleasesHistoryDB(t *testing.T) {
	require.NoError(t, db.Init(filepath.Join(t.TempDir(), "history.db")))
	require.NotNil(t, db.DB)

	closeDB()
	assert.Nil(t, db.DB)

	closeDB()
}
