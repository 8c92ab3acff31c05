// Package router is a thin layer over chi: method helpers, zerolog request
// logging and a server with graceful shutdown.
package router

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Router wraps a chi mux.
type Router struct {
	mux chi.Router
}

// New creates a router using the given middlewares, in order.
func New(middlewares ...func(http.Handler) http.Handler) *Router {
	mux := chi.NewRouter()
	mux.Use(middlewares...)
	return &Router{mux: mux}
}

// --- Register paths ---

func (r *Router) GET(path string, h http.HandlerFunc)    { r.mux.Get(path, h) }
func (r *Router) POST(path string, h http.HandlerFunc)   { r.mux.Post(path, h) }
func (r *Router) PUT(path string, h http.HandlerFunc)    { r.mux.Put(path, h) }
func (r *Router) DELETE(path string, h http.HandlerFunc) { r.mux.Delete(path, h) }

// Handle mounts h for every method on path.
func (r *Router) Handle(path string, h http.Handler) { r.mux.Handle(path, h) }

// Group registers routes under prefix with extra middlewares.
func (r *Router) Group(prefix string, fn func(sub *Router), middlewares ...func(http.Handler) http.Handler) {
	r.mux.Route(prefix, func(cr chi.Router) {
		cr.Use(middlewares...)
		fn(&Router{mux: cr})
	})
}

// NotFound sets the handler for unknown paths.
func (r *Router) NotFound(h http.HandlerFunc) { r.mux.NotFound(h) }

// MethodNotAllowed sets the handler for known paths with a wrong method.
func (r *Router) MethodNotAllowed(h http.HandlerFunc) { r.mux.MethodNotAllowed(h) }

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Routes lists the registered routes as "METHOD /path", sorted.
func (r *Router) Routes() []string {
	var out []string
	_ = chi.Walk(r.mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, method+" "+strings.TrimSuffix(route, "/"))
		return nil
	})
	sort.Strings(out)
	return out
}

// ------------------- Request logging -------------------

// Observer receives the outcome of every request, keyed by route pattern.
type Observer func(method, route string, status int, duration time.Duration)

// RequestLogger logs one line per request. The logger is taken from the
// request context when one is attached (zerolog.Ctx), else base is used.
func RequestLogger(base zerolog.Logger, observe Observer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)
			route := RoutePattern(req)
			if observe != nil {
				observe(req.Method, route, status, duration)
			}

			logger := &base
			if l := zerolog.Ctx(req.Context()); l.GetLevel() != zerolog.Disabled {
				logger = l
			}
			ev := logger.Info()
			switch {
			case status >= 500:
				ev = logger.Error()
			case status >= 400:
				ev = logger.Warn()
			}
			ev.Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", route).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", duration).
				Msg("HTTP request")
		})
	}
}

// RoutePattern returns the matched chi pattern, or "unmatched".
func RoutePattern(req *http.Request) string {
	if rc := chi.RouteContext(req.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// ------------------- Server -------------------

// ServerOptions configures Start.
type ServerOptions struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          zerolog.Logger
}

// Start serves on addr until ctx is done, then shuts down gracefully.
func (r *Router) Start(ctx context.Context, addr string, opts ServerOptions) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		opts.Logger.Info().Str("addr", addr).Msg("Server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	opts.Logger.Info().Dur("timeout", timeout).Msg("Shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
