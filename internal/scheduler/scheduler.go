package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultSweepSpec      = "@every 1m"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
)

// Sweeper removes expired entries and reports how many were dropped.
type Sweeper interface {
	Sweep() int
	Len() int
}

type Scheduler struct {
	ctx     context.Context
	cron    *cron.Cron
	spec    string
	sweeper Sweeper
	log     *slog.Logger
}

func New(ctx context.Context, sweeper Sweeper, spec string, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultSweepSpec
	}

	return &Scheduler{
		ctx:     ctx,
		cron:    c,
		spec:    spec,
		sweeper: sweeper,
		log:     log,
	}
}

func (s *Scheduler) Spec() string {
	return s.spec
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweepResults); err != nil {
		return fmt.Errorf("add sweep job: %w", err)
	}

	s.cron.Start()

	return nil
}

// Stop halts the cron loop and waits for a running sweep to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepResults() {
	select {
	case <-s.ctx.Done():
		s.log.InfoContext(s.ctx, "Scheduler context is done",
			"error", s.ctx.Err())
		return
	default:
	}

	start := time.Now()
	removed := s.sweeper.Sweep()

	if removed == 0 {
		return
	}

	s.log.InfoContext(s.ctx, "Expired results are swept",
		"removed", removed,
		"remaining", s.sweeper.Len(),
		"durationSeconds", time.Since(start).Seconds())
}
