package engine

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"
)

// Loop owns the simulation hot path: run trials while the shared state
// says to, park on a condition wait otherwise, and rebuild the step on
// every resume so structural changes take effect.
type Loop struct {
	state  *State
	src    StepSource
	log    *slog.Logger
	limit  *rate.Limiter // nil runs flat out
	trials int64         // lifetime trial count, loop-local
}

func NewLoop(state *State, src StepSource, log *slog.Logger, limit *rate.Limiter) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{state: state, src: src, log: log, limit: limit}
}

// Run drives the loop until the context ends or a trial fails, whichever
// comes first; it is invoked once per session. The running flag is true
// exactly while trials may execute, and is cleared on every exit path.
func (l *Loop) Run(ctx context.Context) error {
	for {
		// Branch and enter under the state lock so a reconfigure can
		// never slip between step derivation and the running
		// transition: the step always matches the lattice it runs on.
		l.state.mu.Lock()
		for !l.state.shouldRun.Load() {
			if err := ctx.Err(); err != nil {
				l.state.mu.Unlock()
				return err
			}
			l.state.cond.Wait()
		}
		step := l.src(l.state.lat, l.state)
		l.state.running.Store(true)
		l.state.cond.Broadcast()
		l.state.mu.Unlock()
		l.log.Debug("hot loop running", "trials", l.trials)

		err := l.drive(ctx, step)

		l.state.mu.Lock()
		l.state.running.Store(false)
		l.state.cond.Broadcast()
		l.state.mu.Unlock()
		l.log.Debug("hot loop parked", "trials", l.trials)

		if err != nil {
			return err
		}
	}
}

// drive runs trials until the stop flag clears, the context ends, or a
// trial fails. Every iteration passes a cancellation checkpoint.
func (l *Loop) drive(ctx context.Context, step StepFunc) error {
	for l.state.shouldRun.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if l.limit != nil {
			if err := l.limit.Wait(ctx); err != nil {
				return err
			}
		}
		l.trials++
		if err := step(); err != nil {
			return &StepError{Trial: l.trials, Wrapped: err}
		}
		l.state.steps.Add(1)
	}
	return nil
}
