package engine

import (
	"strings"

	"github.com/go-go-golems/orchestrate/pkg/topology"
	"github.com/pkg/errors"
)

// Adapter turns a lifecycle verb for one service into engine invocations.
// Build has no side effects.
type Adapter interface {
	Backend() Backend
	Build(verb Verb, svc topology.Service) (CommandSpec, error)
}

type Options struct {
	ComposeFile string
	Project     string
}

// For returns the adapter for backend. A dispatch selects exactly one.
func For(backend Backend, opts Options) (Adapter, error) {
	switch backend {
	case BackendDocker:
		return NewDocker(opts), nil
	case BackendPodman:
		return NewPodman(opts), nil
	default:
		return nil, errors.Errorf("unknown backend %q", backend)
	}
}

// composeAdapter holds what both compose-style backends share; the variants
// differ only in their base command and verb table.
type composeAdapter struct {
	backend Backend
	opts    Options
	base    []string
	verbs   map[Verb][][]string
}

func (a *composeAdapter) Backend() Backend { return a.backend }

func (a *composeAdapter) Build(verb Verb, svc topology.Service) (CommandSpec, error) {
	if svc.Name == "" {
		return CommandSpec{}, errors.New("service name is required")
	}
	spec := CommandSpec{
		Backend: a.backend,
		Verb:    verb,
		Service: svc.Name,
		Env:     svc.Env,
	}

	if tmpl, ok := svc.CommandTemplate(string(a.backend), string(verb)); ok {
		for _, argv := range tmpl {
			if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
				return CommandSpec{}, errors.Errorf("service %q: empty %s command for %s", svc.Name, verb, a.backend)
			}
			step := make([]string, 0, len(argv))
			for _, arg := range argv {
				step = append(step, a.expand(arg, svc.Name))
			}
			spec.Steps = append(spec.Steps, step)
		}
		return spec, nil
	}

	tmpl, ok := a.verbs[verb]
	if !ok {
		return CommandSpec{}, &UnsupportedVerbError{Backend: a.backend, Verb: verb}
	}
	for _, sub := range tmpl {
		step := append([]string{}, a.baseArgs()...)
		for _, arg := range sub {
			step = append(step, a.expand(arg, svc.Name))
		}
		spec.Steps = append(spec.Steps, step)
	}
	return spec, nil
}

func (a *composeAdapter) baseArgs() []string {
	out := append([]string{}, a.base...)
	if a.opts.ComposeFile != "" {
		out = append(out, "-f", a.opts.ComposeFile)
	}
	if a.opts.Project != "" {
		out = append(out, "-p", a.opts.Project)
	}
	return out
}

// expand substitutes {service}, {project} and {compose_file}.
func (a *composeAdapter) expand(s, service string) string {
	r := strings.NewReplacer(
		"{service}", service,
		"{project}", a.opts.Project,
		"{compose_file}", a.opts.ComposeFile,
	)
	return r.Replace(s)
}
