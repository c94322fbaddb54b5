package topology

import (
	"strings"

	"github.com/go-go-golems/orchestrate/pkg/config"
)

// Load validates services and builds an immutable Topology. It rejects
// empty or duplicate names, dependencies on undeclared services and cycles.
func Load(services []Service) (*Topology, error) {
	t := &Topology{
		services: make([]Service, 0, len(services)),
		index:    make(map[string]int, len(services)),
	}
	for _, s := range services {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return nil, invalidf("service missing name")
		}
		if s.Name == All {
			return nil, invalidf("service name %q is reserved", All)
		}
		if _, ok := t.index[s.Name]; ok {
			return nil, &DuplicateServiceError{Service: s.Name}
		}
		if err := validateHealth(s); err != nil {
			return nil, err
		}
		t.index[s.Name] = len(t.services)
		t.services = append(t.services, cloneService(s))
	}

	for _, s := range t.services {
		for _, dep := range s.DependsOn {
			if _, ok := t.index[dep]; !ok {
				return nil, &DanglingReferenceError{Service: s.Name, Missing: dep}
			}
		}
	}

	if cycle := findCycle(t); cycle != nil {
		return nil, &CyclicDependencyError{Path: cycle}
	}
	return t, nil
}

func validateHealth(s Service) error {
	h := s.Health
	if h == nil {
		return nil
	}
	switch h.Type {
	case HealthTCP:
		if h.Port <= 0 || h.Port > 65535 {
			return invalidf("service %q tcp health needs a port", s.Name)
		}
	case HealthHTTP:
		if h.URL == "" && (h.Port <= 0 || h.Port > 65535) {
			return invalidf("service %q http health needs a url or a port", s.Name)
		}
	case HealthDelay:
		if h.Delay <= 0 {
			return invalidf("service %q delay health needs a positive delay", s.Name)
		}
	default:
		return invalidf("service %q has unsupported health type %q", s.Name, h.Type)
	}
	return nil
}

func findCycle(t *Topology) []string {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(t.services))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		switch state[name] {
		case visiting:
			for i, n := range stack {
				if n == name {
					return append(append([]string{}, stack[i:]...), name)
				}
			}
			return []string{name, name}
		case visited:
			return nil
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range t.services[t.index[name]].DependsOn {
			if c := visit(dep); c != nil {
				return c
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = visited
		return nil
	}

	for _, s := range t.services {
		if c := visit(s.Name); c != nil {
			return c
		}
	}
	return nil
}

func cloneService(s Service) Service {
	out := s
	out.DependsOn = append([]string(nil), s.DependsOn...)
	if s.Health != nil {
		h := *s.Health
		out.Health = &h
	}
	if s.Env != nil {
		out.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			out.Env[k] = v
		}
	}
	if s.Commands != nil {
		out.Commands = make(map[string]map[string][][]string, len(s.Commands))
		for backend, verbs := range s.Commands {
			m := make(map[string][][]string, len(verbs))
			for verb, steps := range verbs {
				m[verb] = cloneSteps(steps)
			}
			out.Commands[backend] = m
		}
	}
	return out
}

func cloneSteps(steps [][]string) [][]string {
	out := make([][]string, 0, len(steps))
	for _, step := range steps {
		out = append(out, append([]string(nil), step...))
	}
	return out
}

// FromConfig converts the services section of a config file and loads it.
func FromConfig(cfg *config.File) (*Topology, error) {
	if cfg == nil {
		return Load(nil)
	}
	services := make([]Service, 0, len(cfg.Services))
	for _, cs := range cfg.Services {
		svc := Service{
			Name:      cs.Name,
			DependsOn: cs.DependsOn,
			Env:       cs.Env,
			Commands:  cs.Commands,
		}
		if cs.Health != nil {
			svc.Health = &HealthCheck{
				Type:         HealthType(strings.ToLower(cs.Health.Type)),
				Host:         cs.Health.Host,
				Port:         cs.Health.Port,
				Scheme:       cs.Health.Scheme,
				Path:         cs.Health.Path,
				URL:          cs.Health.URL,
				ExpectStatus: cs.Health.ExpectStatus,
				Timeout:      cs.Health.Timeout,
				Delay:        cs.Health.Delay,
			}
		}
		services = append(services, svc)
	}
	return Load(services)
}
