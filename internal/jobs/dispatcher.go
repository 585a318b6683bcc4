package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"articlesum/internal/domain"
	"articlesum/internal/render"
)

const (
	DefaultJobTimeout = 2 * time.Minute
	DefaultResultPath = "/result/"

	StatusAccepted = "accepted"
	homePath       = "/"
)

type Kind int

const (
	// Sync waits for the handler and returns its action.
	Sync Kind = iota + 1
	// Async stores the handler's future and returns a job handle at once.
	Async
)

func (k Kind) String() string {
	switch k {
	case Sync:
		return "sync"
	case Async:
		return "async"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindForMethod maps GET to Sync and POST to Async.
func KindForMethod(method string) (Kind, bool) {
	switch method {
	case http.MethodGet:
		return Sync, true
	case http.MethodPost:
		return Async, true
	default:
		return 0, false
	}
}

// Handler runs one task pipeline.
type Handler func(ctx context.Context, req domain.Request) (render.Action, error)

type AsyncHandle struct {
	ID        string `json:"id"`
	ResultURL string `json:"resultUrl"`
	Status    string `json:"status"`
}

// Outcome carries either the resolved action (sync path and home redirect)
// or the handle of an accepted job.
type Outcome struct {
	Action render.Action
	Handle *AsyncHandle
}

type Dispatcher struct {
	ctx        context.Context
	cache      *Cache
	timeout    time.Duration
	resultPath string
	wg         sync.WaitGroup
	log        *slog.Logger
}

type DispatcherOption func(*Dispatcher)

func WithJobTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithResultPath(path string) DispatcherOption {
	return func(d *Dispatcher) {
		if path = strings.TrimSpace(path); path != "" {
			d.resultPath = path
		}
	}
}

// NewDispatcher builds a dispatcher whose async jobs are cancelled when ctx
// is done.
func NewDispatcher(
	ctx context.Context,
	cache *Cache,
	log *slog.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		ctx:        ctx,
		cache:      cache,
		timeout:    DefaultJobTimeout,
		resultPath: DefaultResultPath,
		log:        log,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Dispatcher) Cache() *Cache {
	return d.cache
}

func (d *Dispatcher) Dispatch(
	ctx context.Context,
	kind Kind,
	handler Handler,
	req domain.Request,
) (Outcome, error) {
	if strings.TrimSpace(req.URL) == "" {
		return Outcome{Action: render.Redirect{URL: homePath}}, nil
	}

	switch kind {
	case Sync:
		jobCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		action, err := d.run(jobCtx, handler, req)
		if err != nil {
			return Outcome{}, err
		}

		return Outcome{Action: action}, nil
	case Async:
		return d.dispatchAsync(ctx, handler, req)
	default:
		return Outcome{}, fmt.Errorf("unknown dispatch kind: %s", kind)
	}
}

// Result waits for the job stored under id. It returns ErrNotFound for unknown
// or expired ids and the job's own error when the job failed.
func (d *Dispatcher) Result(ctx context.Context, id string) (render.Action, error) {
	future, ok := d.cache.Get(strings.TrimSpace(id))
	if !ok {
		return nil, ErrNotFound
	}

	return future.Wait(ctx)
}

// Wait blocks until every async job started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatchAsync(
	ctx context.Context,
	handler Handler,
	req domain.Request,
) (Outcome, error) {
	future := NewFuture()

	id, err := d.cache.Put(future)
	if err != nil {
		return Outcome{}, fmt.Errorf("put job: %w", err)
	}

	d.log.InfoContext(ctx, "Job is accepted",
		"jobID", id,
		"url", req.URL,
		"timeout", d.timeout.String())

	d.wg.Go(func() {
		jobCtx, cancel := context.WithTimeout(d.ctx, d.timeout)
		defer cancel()

		start := time.Now()
		action, runErr := d.run(jobCtx, handler, req)
		future.Resolve(action, runErr)

		if runErr != nil {
			d.log.ErrorContext(jobCtx, "Job failed",
				"error", runErr,
				"jobID", id,
				"url", req.URL,
				"durationSeconds", time.Since(start).Seconds())

			return
		}

		d.log.InfoContext(jobCtx, "Job is done",
			"jobID", id,
			"url", req.URL,
			"durationSeconds", time.Since(start).Seconds())
	})

	return Outcome{Handle: &AsyncHandle{
		ID:        id,
		ResultURL: d.resultPath + id,
		Status:    StatusAccepted,
	}}, nil
}

func (d *Dispatcher) run(
	ctx context.Context,
	handler Handler,
	req domain.Request,
) (action render.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			action = nil
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	if handler == nil {
		return nil, errors.New("handler is nil")
	}

	action, err = handler(ctx, req)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, errors.New("handler produced no response")
	}

	return action, nil
}
