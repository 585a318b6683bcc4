package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"articlesum/internal/domain"
	"articlesum/internal/jobs"
)

const (
	DefaultMaxBodyBytes int64 = 5 << 20

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second

	usage = `articlesum

GET  /summarize?url=<URL>    summary page
POST /summarize?url=<URL>    accepted job, body may carry the page HTML
GET  /calendarize?url=<URL>  redirect to a calendar event template
POST /calendarize?url=<URL>  accepted job, body may carry the page HTML
GET  /result/<id>            outcome of an accepted job
`
)

// Handlers are the task pipelines served by the transport.
type Handlers struct {
	Summarize   jobs.Handler
	Calendarize jobs.Handler
}

type Server struct {
	http         *http.Server
	dispatcher   *jobs.Dispatcher
	maxBodyBytes int64
	log          *slog.Logger
}

type Option func(*Server)

func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

func New(
	addr string,
	dispatcher *jobs.Dispatcher,
	handlers Handlers,
	log *slog.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		dispatcher:   dispatcher,
		maxBodyBytes: DefaultMaxBodyBytes,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.routes(handlers),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// Handler exposes the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	s.log.InfoContext(ctx, "HTTP server is started",
		"addr", s.http.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	s.log.InfoContext(ctx, "HTTP server is stopped",
		"addr", s.http.Addr)

	return nil
}

func (s *Server) routes(handlers Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", handleUsage)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("/summarize", s.handleTask(domain.TaskSummarize, handlers.Summarize))
	mux.HandleFunc("/calendarize", s.handleTask(domain.TaskCalendarize, handlers.Calendarize))
	mux.HandleFunc("GET "+jobs.DefaultResultPath+"{id}", s.handleResult)

	return s.recoverPanics(s.logRequests(mux))
}

func handleUsage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, usage)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleTask(task domain.Task, handler jobs.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := jobs.KindForMethod(r.Method)
		if !ok {
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		req := domain.Request{URL: strings.TrimSpace(r.URL.Query().Get("url"))}

		if kind == jobs.Async && req.URL != "" {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					http.Error(w, fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
						http.StatusRequestEntityTooLarge)
					return
				}

				http.Error(w, "read request body: "+err.Error(), http.StatusBadRequest)
				return
			}
			req.RawHTML = string(body)
		}

		outcome, err := s.dispatcher.Dispatch(r.Context(), kind, handler, req)
		if err != nil {
			s.log.ErrorContext(r.Context(), "Task failed",
				"error", err,
				"task", task.String(),
				"url", req.URL)

			writeError(w, err)
			return
		}

		if outcome.Handle != nil {
			writeJSON(w, http.StatusAccepted, outcome.Handle)
			return
		}

		outcome.Action.Render(w, r)
	}
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	action, err := s.dispatcher.Result(r.Context(), id)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		http.Error(w, "result not found", http.StatusNotFound)
		return
	case err != nil:
		s.log.ErrorContext(r.Context(), "Job result is an error",
			"error", err,
			"jobID", id)

		writeError(w, err)
		return
	}

	action.Render(w, r)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
