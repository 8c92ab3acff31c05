package router

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_MethodsAndGroups(t *testing.T) {
	t.Parallel()

	r := New()
	r.GET("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Group("/api/v1", func(api *Router) {
		api.POST("/items", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
		api.PUT("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {})
		api.DELETE("/items/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { http.Error(w, "nope", http.StatusTeapot) })

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodPost, "/api/v1/items", http.StatusCreated},
		{http.MethodDelete, "/api/v1/items/7", http.StatusNoContent},
		{http.MethodGet, "/api/v1/items", http.StatusMethodNotAllowed},
		{http.MethodGet, "/missing", http.StatusTeapot},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}

	assert.Equal(t, []string{
		"DELETE /api/v1/items/{id}",
		"GET /health",
		"POST /api/v1/items",
		"PUT /api/v1/items/{id}",
	}, r.Routes())
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var observed []string
	base := zerolog.New(&buf)
	r := New(RequestLogger(base, func(method, route string, status int, _ time.Duration) {
		observed = append(observed, method+" "+route+" "+http.StatusText(status))
	}))
	r.GET("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/other", nil))

	assert.Equal(t, []string{"GET /items/{id} Not Found", "GET unmatched Not Found"}, observed)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/items/42", entry["path"])
	assert.Equal(t, "/items/{id}", entry["route"])
	assert.EqualValues(t, 404, entry["status"])
	assert.EqualValues(t, 4, entry["bytes"])
}

func TestStart_GracefulShutdown(t *testing.T) {
	t.Parallel()

	// reserve a free port
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	r := New()
	r.GET("/health", func(w http.ResponseWriter, _ *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx, addr, ServerOptions{Logger: zerolog.Nop(), ShutdownTimeout: time.Second}) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
