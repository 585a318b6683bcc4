package jobs

import (
	"context"
	"sync"

	"articlesum/internal/render"
)

// Future is the eventual outcome of a job. It is resolved exactly once.
type Future struct {
	once   sync.Once
	done   chan struct{}
	action render.Action
	err    error
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve stores the outcome. Calls after the first are ignored.
func (f *Future) Resolve(action render.Action, err error) {
	f.once.Do(func() {
		f.action = action
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the future is resolved or ctx is done.
func (f *Future) Wait(ctx context.Context) (render.Action, error) {
	select {
	case <-f.done:
		return f.action, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}
