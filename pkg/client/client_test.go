package client

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sanonone/spacecol/internal/server"
	"github.com/sanonone/spacecol/pkg/config"
	"github.com/sanonone/spacecol/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func startServer(t *testing.T, token string, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.NumAttractionPoints = 300
	cfg.LogEvery = 0
	if mutate != nil {
		mutate(&cfg)
	}
	eng, err := engine.Open(cfg)
	require.NoError(t, err)
	srv := server.NewServer(eng, ":0", token)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Shutdown()
		ts.Close()
		eng.Close()
	})
	return ts
}

func TestClientAgainstServer(t *testing.T) {
	ts := startServer(t, "s3cret", nil)
	c := NewFromURL(ts.URL, "s3cret")

	require.NoError(t, c.Health())

	info, err := c.Info()
	require.NoError(t, err)
	assert.NotEmpty(t, info.RunID)
	assert.Contains(t, string(info.Config), `"num_attraction_points":300`)

	res, err := c.Step(4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Steps)
	assert.Equal(t, uint64(4), res.Status.Iteration)

	st, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, info.RunID, st.RunID)
	assert.Equal(t, uint64(4), st.Iteration)

	snap, err := c.State()
	require.NoError(t, err)
	assert.Equal(t, st.Nodes, snap.Nodes)

	edges, err := c.Connections()
	require.NoError(t, err)
	assert.Empty(t, edges, "simulate scenario has no sources")

	text, err := c.ConnectionsDOT()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "digraph"))
}

func TestClientAPIErrors(t *testing.T) {
	ts := startServer(t, "s3cret", nil)

	_, err := NewFromURL(ts.URL, "wrong").Status()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "missing or invalid token", apiErr.Message)

	_, err = NewFromURL(ts.URL, "s3cret").Step(0)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	_, err = NewFromURL(ts.URL, "s3cret").GetTaskStatus("missing")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientRunTask(t *testing.T) {
	ts := startServer(t, "", func(c *config.Config) { c.MaxIter = 20 })
	c := NewFromURL(ts.URL, "")

	task, err := c.Run()
	require.NoError(t, err)
	require.NoError(t, task.Wait(5*time.Millisecond, 10*time.Second))
	assert.Equal(t, "completed", task.Status)
	require.NotNil(t, task.Summary)
	assert.LessOrEqual(t, task.Summary.Iterations, uint64(20))
}

func TestTaskWithoutClient(t *testing.T) {
	assert.Error(t, (&Task{ID: "x"}).Refresh())
}
