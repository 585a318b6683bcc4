package server

import (
	"fmt"
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		s.log.InfoContext(r.Context(), "Request is served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"durationSeconds", time.Since(start).Seconds())
	})
}

// recoverPanics turns a handler panic into a 500 with the panic message.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err := fmt.Errorf("handler panicked: %v", rec)
			s.log.ErrorContext(r.Context(), "Handler panicked",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path)

			writeError(w, err)
		}()

		next.ServeHTTP(w, r)
	})
}
