// Package dispatch runs lifecycle verbs across the services of a topology,
// one service at a time, stopping at the first failure.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-go-golems/orchestrate/pkg/engine"
	"github.com/go-go-golems/orchestrate/pkg/events"
	"github.com/go-go-golems/orchestrate/pkg/topology"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusPlanned   Status = "planned"
)

type ServiceStatus struct {
	Name     string             `json:"name"`
	Status   Status             `json:"status"`
	Command  engine.CommandSpec `json:"command"`
	Error    string             `json:"error,omitempty"`
	Duration time.Duration      `json:"duration"`
}

type Result struct {
	RunID      string          `json:"run_id"`
	Verb       engine.Verb     `json:"verb"`
	Target     string          `json:"target"`
	Backend    engine.Backend  `json:"backend"`
	OK         bool            `json:"ok"`
	DryRun     bool            `json:"dry_run,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Services   []ServiceStatus `json:"services"`
}

// Failed returns the service that stopped the run, if any.
func (r Result) Failed() (ServiceStatus, bool) {
	for _, s := range r.Services {
		if s.Status == StatusFailed {
			return s, true
		}
	}
	return ServiceStatus{}, false
}

// DispatchFailure reports the service whose command failed.
type DispatchFailure struct {
	Service string
	Verb    engine.Verb
	Err     error
}

func (e *DispatchFailure) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Verb, e.Service, e.Err)
}

func (e *DispatchFailure) Unwrap() error { return e.Err }

type Options struct {
	Topology *topology.Topology
	Engine   engine.Options
	Runner   Runner
	Events   events.Emitter
	DryRun   bool
}

type Dispatcher struct {
	opts Options
}

func New(opts Options) (*Dispatcher, error) {
	if opts.Topology == nil {
		return nil, errors.New("missing topology")
	}
	if opts.Runner == nil && !opts.DryRun {
		return nil, errors.New("missing runner")
	}
	opts.Events = events.OrNop(opts.Events)
	return &Dispatcher{opts: opts}, nil
}

// Plan resolves target and builds the command for every service without
// running anything. Any unsupported verb fails the whole plan.
func (d *Dispatcher) Plan(verb string, target string, backend engine.Backend) ([]engine.CommandSpec, error) {
	_, specs, err := d.plan(verb, target, backend)
	return specs, err
}

func (d *Dispatcher) plan(verb string, target string, backend engine.Backend) (engine.Verb, []engine.CommandSpec, error) {
	v, err := engine.ParseVerb(verb)
	if err != nil {
		return "", nil, err
	}
	adapter, err := engine.For(backend, d.opts.Engine)
	if err != nil {
		return "", nil, err
	}
	services, err := d.opts.Topology.Resolve(target)
	if err != nil {
		return "", nil, err
	}
	specs := make([]engine.CommandSpec, 0, len(services))
	for _, svc := range services {
		spec, err := adapter.Build(v, svc)
		if err != nil {
			return "", nil, err
		}
		specs = append(specs, spec)
	}
	return v, specs, nil
}

// Dispatch runs verb for target in declaration order. Service N+1 never
// starts before service N finished; after a failure the rest are skipped and
// a *DispatchFailure is returned alongside the full Result.
func (d *Dispatcher) Dispatch(ctx context.Context, verb string, target string, backend engine.Backend) (Result, error) {
	v, specs, err := d.plan(verb, target, backend)
	if err != nil {
		return Result{}, err
	}

	if target == "" {
		target = topology.All
	}
	res := Result{
		RunID:     watermill.NewUUID(),
		Verb:      v,
		Target:    target,
		Backend:   backend,
		DryRun:    d.opts.DryRun,
		StartedAt: time.Now(),
		Services:  make([]ServiceStatus, 0, len(specs)),
	}
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Service)
	}
	d.opts.Events.Emit(events.TypeDispatchStarted, events.DispatchStarted{
		RunID: res.RunID, Verb: string(res.Verb), Target: target, Backend: string(backend),
		Services: names, DryRun: d.opts.DryRun, At: res.StartedAt,
	})

	var failure *DispatchFailure
	for _, spec := range specs {
		st := ServiceStatus{Name: spec.Service, Command: spec}
		switch {
		case failure != nil:
			st.Status = StatusSkipped
		case d.opts.DryRun:
			st.Status = StatusPlanned
		default:
			var runErr error
			st, runErr = d.runService(ctx, res.RunID, spec)
			if runErr != nil {
				failure = &DispatchFailure{Service: spec.Service, Verb: spec.Verb, Err: runErr}
			}
		}
		res.Services = append(res.Services, st)
	}

	res.FinishedAt = time.Now()
	res.OK = failure == nil
	fin := events.DispatchFinished{
		RunID: res.RunID, Ok: res.OK, At: res.FinishedAt,
		DurationMs: res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
	}
	if failure != nil {
		fin.Error = failure.Error()
	}
	d.opts.Events.Emit(events.TypeDispatchFinished, fin)

	if failure != nil {
		return res, failure
	}
	log.Info().Str("verb", string(res.Verb)).Str("target", target).Str("backend", string(backend)).
		Int("services", len(res.Services)).Msg("dispatch complete")
	return res, nil
}

func (d *Dispatcher) runService(ctx context.Context, runID string, spec engine.CommandSpec) (ServiceStatus, error) {
	st := ServiceStatus{Name: spec.Service, Command: spec}
	start := time.Now()
	d.opts.Events.Emit(events.TypeServiceStarted, events.ServiceStarted{
		RunID: runID, Service: spec.Service, Command: spec.String(), At: start,
	})
	log.Info().Str("service", spec.Service).Str("verb", string(spec.Verb)).Str("command", spec.String()).Msg("dispatch")

	var err error
	for _, step := range spec.Steps {
		if err = d.opts.Runner.Run(ctx, step, spec.Env); err != nil {
			break
		}
	}
	st.Duration = time.Since(start)
	st.Status = StatusSucceeded
	if err != nil {
		st.Status = StatusFailed
		st.Error = err.Error()
		log.Error().Str("service", spec.Service).Str("verb", string(spec.Verb)).Err(err).Msg("dispatch failed")
	}

	ev := events.ServiceFinished{
		RunID: runID, Service: spec.Service, Status: string(st.Status),
		At: time.Now(), DurationMs: st.Duration.Milliseconds(), Error: st.Error,
	}
	d.opts.Events.Emit(events.TypeServiceFinished, ev)
	return st, err
}
