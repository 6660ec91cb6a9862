package admin

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, NewRouter(Options{Log: zerolog.Nop()}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestStatus(t *testing.T) {
	h := NewRouter(Options{
		Status: func() any { return map[string]string{"state": "running"} },
		Log:    zerolog.Nop(),
	})
	rec := get(t, h, "/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"state":"running"}`, rec.Body.String())

	rec = get(t, NewRouter(Options{Log: zerolog.Nop()}), "/status")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "admin_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	var current prometheus.Gatherer
	h := NewRouter(Options{
		Gatherer: func() prometheus.Gatherer { return current },
		Log:      zerolog.Nop(),
	})

	rec := get(t, h, "/metrics")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "no collector loaded")

	current = reg
	rec = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin_test_total 3")
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, NewRouter(Options{Log: zerolog.Nop()}), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListen(t *testing.T) {
	s, err := Listen("127.0.0.1:0", Options{Log: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	resp, err := http.Get("http://" + s.Addr().String() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}
