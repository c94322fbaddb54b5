// Package gate blocks until a set of readiness checks have all succeeded
// once, or a deadline passes.
package gate

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-go-golems/orchestrate/pkg/events"
	"github.com/go-go-golems/orchestrate/pkg/ready"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusReady      Status = "ready"
	StatusTimedOut   Status = "timed_out"
	StatusProbeError Status = "probe_error"
)

var ErrGateUsed = errors.New("gate already returned a result")

// Result is the terminal outcome of Await.
type Result struct {
	Status Status
	// Pending lists checks that never succeeded, in declaration order (TimedOut).
	Pending []string
	// Service names the check whose probe failed fatally (ProbeError).
	Service string
	Err     error
	Rounds  int
	Elapsed time.Duration
}

func (r Result) Ready() bool { return r.Status == StatusReady }

type Options struct {
	Prober ready.Prober
	Events events.Emitter
}

// Gate is single use: after Await returns, the gate must be rebuilt.
type Gate struct {
	prober ready.Prober
	events events.Emitter
	used   atomic.Bool
}

func New(opts Options) *Gate {
	p := opts.Prober
	if p == nil {
		p = ready.NewNetProber()
	}
	return &Gate{prober: p, events: events.OrNop(opts.Events)}
}

type probeFailure struct {
	check string
	err   error
}

func (f *probeFailure) Error() string { return f.check + ": " + f.err.Error() }

// Await probes all pending checks concurrently every interval until each has
// succeeded once. It returns TimedOut when maxWait elapses first and
// ProbeError as soon as any probe reports a fatal error. Probes still in
// flight at that point are cancelled and their results ignored.
func (g *Gate) Await(ctx context.Context, checks []ready.Check, interval, maxWait time.Duration) (Result, error) {
	if interval <= 0 {
		return Result{}, errors.New("gate interval must be > 0")
	}
	if maxWait <= 0 {
		return Result{}, errors.New("gate max wait must be > 0")
	}
	seen := map[string]struct{}{}
	for _, c := range checks {
		if _, ok := seen[c.Name()]; ok {
			return Result{}, errors.Errorf("duplicate readiness check %q", c.Name())
		}
		seen[c.Name()] = struct{}{}
	}
	if !g.used.CompareAndSwap(false, true) {
		return Result{}, ErrGateUsed
	}

	start := time.Now()
	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pending := append([]ready.Check{}, checks...)
	round := 0

	finish := func(res Result) (Result, error) {
		res.Rounds = round
		res.Elapsed = time.Since(start)
		ev := events.GateFinished{
			Status:     string(res.Status),
			Pending:    res.Pending,
			Service:    res.Service,
			Rounds:     res.Rounds,
			At:         time.Now(),
			DurationMs: res.Elapsed.Milliseconds(),
		}
		if res.Err != nil {
			ev.Error = res.Err.Error()
		}
		g.events.Emit(events.TypeGateFinished, ev)
		return res, nil
	}
	timedOut := func(err error) (Result, error) {
		return finish(Result{Status: StatusTimedOut, Pending: names(pending), Err: err})
	}

	for len(pending) > 0 {
		round++
		g.events.Emit(events.TypeGateRound, events.GateRound{Round: round, Pending: names(pending), At: time.Now()})
		log.Debug().Int("round", round).Strs("pending", names(pending)).Msg("gate round")

		roundCtx, cancel := context.WithCancel(ctx)
		done := make(chan roundResult, 1)
		go func(checks []ready.Check) {
			done <- g.runRound(roundCtx, checks)
		}(pending)

		select {
		case rr := <-done:
			cancel()
			if rr.fatal != nil {
				return finish(Result{Status: StatusProbeError, Service: rr.fatal.check, Err: rr.fatal.err, Pending: names(pending)})
			}
			var still []ready.Check
			for i, c := range pending {
				if rr.ok[i] {
					log.Info().Str("check", c.Name()).Int("round", round).Msg("dependency ready")
					g.events.Emit(events.TypeGateCheckUp, events.GateCheckReady{Check: c.Name(), Round: round, At: time.Now()})
					continue
				}
				still = append(still, c)
			}
			pending = still
		case <-deadline.C:
			cancel()
			return timedOut(nil)
		case <-ctx.Done():
			cancel()
			return timedOut(ctx.Err())
		}

		if len(pending) == 0 {
			break
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			return timedOut(nil)
		case <-ctx.Done():
			return timedOut(ctx.Err())
		}
	}

	return finish(Result{Status: StatusReady})
}

type roundResult struct {
	ok    []bool
	fatal *probeFailure
}

func (g *Gate) runRound(ctx context.Context, checks []ready.Check) roundResult {
	ok := make([]bool, len(checks))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, c := range checks {
		eg.Go(func() error {
			up, err := g.prober.Probe(egCtx, c)
			if err != nil {
				return &probeFailure{check: c.Name(), err: err}
			}
			ok[i] = up
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		var pf *probeFailure
		if errors.As(err, &pf) {
			return roundResult{fatal: pf}
		}
		return roundResult{fatal: &probeFailure{err: err}}
	}
	return roundResult{ok: ok}
}

func names(checks []ready.Check) []string {
	out := make([]string, 0, len(checks))
	for _, c := range checks {
		out = append(out, c.Name())
	}
	return out
}
