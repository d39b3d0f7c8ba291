// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/tamzrod/marstek-bridge/internal/logger"
)

// Scheduler runs one-shot, delayed and recurring tasks on goroutines.
// Every task receives a context cancelled by Close or by its own cancel func.
// A panicking task is logged; a recurring task keeps its schedule.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logger.Logger
}

func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel, log: log}
}

// Go runs fn once, now.
func (s *Scheduler) Go(fn func(context.Context)) {
	if s.ctx.Err() != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(s.ctx, "task", fn)
	}()
}

// After runs fn once after d unless cancelled first.
func (s *Scheduler) After(d time.Duration, fn func(context.Context)) (cancel func()) {
	if s.ctx.Err() != nil {
		return func() {}
	}

	ctx, stop := context.WithCancel(s.ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stop()

		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.run(ctx, "delayed task", fn)
		}
	}()
	return stop
}

// Every runs fn now and then every d until cancelled.
// Runs of one registration never overlap; a slow run delays the next tick.
func (s *Scheduler) Every(d time.Duration, fn func(context.Context)) (cancel func()) {
	if s.ctx.Err() != nil {
		return func() {}
	}

	ctx, stop := context.WithCancel(s.ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stop()

		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			s.run(ctx, "recurring task", fn)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
			}
		}
	}()
	return stop
}

// Close cancels every pending and recurring task and waits for running ones.
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, kind string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("scheduled task panic", "kind", kind, "panic", r)
		}
	}()
	fn(ctx)
}
