package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	sweeps  atomic.Int32
	removed int
}

func (s *countingSweeper) Sweep() int {
	s.sweeps.Add(1)
	return s.removed
}

func (s *countingSweeper) Len() int {
	return 0
}

func TestNewDefaultsSpec(t *testing.T) {
	s := New(context.Background(), &countingSweeper{}, "  ", slog.Default())

	if s.Spec() != DefaultSweepSpec {
		t.Fatalf("expected default spec, got %q", s.Spec())
	}
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := New(context.Background(), &countingSweeper{}, "not a cron spec", slog.Default())

	if err := s.Start(); err == nil {
		t.Fatalf("expected invalid spec to fail")
	}
}

func TestSweepResultsCallsSweeper(t *testing.T) {
	sweeper := &countingSweeper{removed: 3}
	s := New(context.Background(), sweeper, DefaultSweepSpec, slog.Default())

	s.sweepResults()

	if got := sweeper.sweeps.Load(); got != 1 {
		t.Fatalf("expected one sweep, got %d", got)
	}
}

func TestSweepResultsSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweeper := &countingSweeper{}
	s := New(ctx, sweeper, DefaultSweepSpec, slog.Default())

	s.sweepResults()

	if got := sweeper.sweeps.Load(); got != 0 {
		t.Fatalf("expected no sweep after cancellation, got %d", got)
	}
}

func TestStartRunsScheduledSweeps(t *testing.T) {
	sweeper := &countingSweeper{}
	s := New(context.Background(), sweeper, "@every 1s", slog.Default())

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for sweeper.sweeps.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected scheduled sweep to run")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
