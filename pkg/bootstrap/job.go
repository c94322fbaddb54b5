// Package bootstrap runs a one-shot job after its dependencies are ready.
// The job body runs at most once and is never retried here; restarting a
// failed job is left to whatever supervises the process.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-go-golems/orchestrate/pkg/events"
	"github.com/go-go-golems/orchestrate/pkg/gate"
	"github.com/go-go-golems/orchestrate/pkg/ready"
	"github.com/rs/zerolog/log"
)

const (
	ExitOK         = 0
	ExitBodyFailed = 1
	ExitTimedOut   = 2
	ExitProbeError = 3
	ExitConfig     = 4
)

// Awaiter is satisfied by *gate.Gate.
type Awaiter interface {
	Await(ctx context.Context, checks []ready.Check, interval, maxWait time.Duration) (gate.Result, error)
}

type Job struct {
	Name     string
	Interval time.Duration
	MaxWait  time.Duration
	// Stderr receives the single operator-facing failure line.
	Stderr io.Writer
	Events events.Emitter

	// LastResult is the gate outcome of the most recent Run.
	LastResult gate.Result
}

// Run waits on g and then calls body exactly once if every check became
// ready. It returns the process exit code.
func (j *Job) Run(ctx context.Context, g Awaiter, checks []ready.Check, body func(ctx context.Context) error) int {
	stderr := j.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	em := events.OrNop(j.Events)
	name := j.Name
	if name == "" {
		name = "bootstrap"
	}

	res, err := g.Await(ctx, checks, j.Interval, j.MaxWait)
	j.LastResult = res
	if err != nil {
		log.Error().Str("job", name).Err(err).Msg("gate misconfigured")
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return ExitConfig
	}

	switch res.Status {
	case gate.StatusReady:
	case gate.StatusTimedOut:
		log.Error().Str("job", name).Strs("pending", res.Pending).Dur("waited", res.Elapsed).Msg("dependencies not ready")
		_, _ = fmt.Fprintf(stderr, "%s: timed out after %s waiting for: %s\n", name, j.MaxWait, strings.Join(res.Pending, ", "))
		return ExitTimedOut
	case gate.StatusProbeError:
		log.Error().Str("job", name).Str("service", res.Service).Err(res.Err).Msg("readiness probe failed")
		_, _ = fmt.Fprintf(stderr, "%s: readiness probe for %s failed: %v\n", name, res.Service, res.Err)
		return ExitProbeError
	default:
		_, _ = fmt.Fprintf(stderr, "%s: unexpected gate status %q\n", name, res.Status)
		return ExitConfig
	}

	if body == nil {
		return ExitOK
	}

	em.Emit(events.TypeBootstrapStarted, events.BootstrapStarted{Job: name, At: time.Now()})
	log.Info().Str("job", name).Int("rounds", res.Rounds).Msg("dependencies ready; running job")

	if err := body(ctx); err != nil {
		em.Emit(events.TypeBootstrapFinished, events.BootstrapFinished{Job: name, ExitCode: ExitBodyFailed, Error: err.Error(), At: time.Now()})
		log.Error().Str("job", name).Err(err).Msg("job failed")
		_, _ = fmt.Fprintf(stderr, "%s: job failed: %v\n", name, err)
		return ExitBodyFailed
	}
	em.Emit(events.TypeBootstrapFinished, events.BootstrapFinished{Job: name, Ok: true, ExitCode: ExitOK, At: time.Now()})
	return ExitOK
}
