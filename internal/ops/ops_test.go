package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthzOK(t *testing.T) {
	srv := NewServer("catalogbot", ":0", &fakePinger{}, Stats{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHealthzDatabaseDown(t *testing.T) {
	srv := NewServer("catalogbot", ":0", &fakePinger{err: errors.New("connection refused")}, Stats{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthzWithoutDatabase(t *testing.T) {
	srv := NewServer("relaybot", ":0", nil, Stats{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusReportsCounters(t *testing.T) {
	srv := NewServer("catalogbot", ":0", &fakePinger{}, Stats{
		ActiveForms: func() int { return 3 },
		QueuedSends: func() int { return 7 },
		SendErrors:  func() uint64 { return 2 },
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "catalogbot", got.App)
	assert.Equal(t, 3, got.ActiveForms)
	assert.Equal(t, 7, got.QueuedSends)
	assert.Equal(t, uint64(2), got.SendErrors)
	assert.GreaterOrEqual(t, got.UptimeS, int64(0))
	assert.NotEmpty(t, got.Version)
}

func TestStatusNilCallbacks(t *testing.T) {
	srv := NewServer("catalogbot", ":0", nil, Stats{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Zero(t, got.ActiveForms)
	assert.Zero(t, got.QueuedSends)
	assert.Zero(t, got.SendErrors)
}

func TestRunDisabledWithoutListen(t *testing.T) {
	srv := NewServer("catalogbot", "", nil, Stats{})
	require.NoError(t, srv.Run(context.Background()))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	srv := NewServer("catalogbot", "127.0.0.1:0", nil, Stats{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}
