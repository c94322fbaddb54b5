// Package topology holds the declared services, their dependency edges and
// health descriptors. A Topology is validated once by Load and never
// modified afterwards.
package topology

import (
	"strings"
	"time"
)

const All = "all"

type HealthType string

const (
	HealthTCP   HealthType = "tcp"
	HealthHTTP  HealthType = "http"
	HealthDelay HealthType = "delay"
)

type HealthCheck struct {
	Type         HealthType
	Host         string // defaults to the service name
	Port         int
	Scheme       string // http checks; defaults to "http"
	Path         string
	URL          string // full URL, overrides Scheme/Host/Port/Path
	ExpectStatus int
	Timeout      time.Duration
	Delay        time.Duration
}

type Service struct {
	Name      string
	DependsOn []string
	Health    *HealthCheck
	Env       map[string]string
	// Commands are per-backend, per-verb argv templates, one per step.
	Commands map[string]map[string][][]string
}

// CommandTemplate returns a copy of the configured argv steps for
// backend/verb, if any.
func (s Service) CommandTemplate(backend, verb string) ([][]string, bool) {
	byVerb, ok := s.Commands[backend]
	if !ok {
		return nil, false
	}
	steps, ok := byVerb[verb]
	if !ok || len(steps) == 0 {
		return nil, false
	}
	return cloneSteps(steps), true
}

type Topology struct {
	services []Service
	index    map[string]int
}

// Services returns a copy of every service in declaration order.
func (t *Topology) Services() []Service {
	out := make([]Service, 0, len(t.services))
	for _, s := range t.services {
		out = append(out, cloneService(s))
	}
	return out
}

func (t *Topology) Names() []string {
	out := make([]string, 0, len(t.services))
	for _, s := range t.services {
		out = append(out, s.Name)
	}
	return out
}

func (t *Topology) Len() int { return len(t.services) }

func (t *Topology) Get(name string) (Service, bool) {
	i, ok := t.index[name]
	if !ok {
		return Service{}, false
	}
	return cloneService(t.services[i]), true
}

// Resolve returns every service for "" or "all", otherwise only the named
// service. Dependencies of the named service are not pulled in.
func (t *Topology) Resolve(target string) ([]Service, error) {
	target = strings.TrimSpace(target)
	if target == "" || target == All {
		return t.Services(), nil
	}
	svc, ok := t.Get(target)
	if !ok {
		return nil, &UnknownServiceError{Service: target}
	}
	return []Service{svc}, nil
}

// Order returns service names so that every service comes after its
// dependencies. Ties keep declaration order.
func (t *Topology) Order() []string {
	done := make(map[string]bool, len(t.services))
	out := make([]string, 0, len(t.services))
	var visit func(name string)
	visit = func(name string) {
		if done[name] {
			return
		}
		done[name] = true
		svc := t.services[t.index[name]]
		for _, dep := range svc.DependsOn {
			visit(dep)
		}
		out = append(out, name)
	}
	for _, s := range t.services {
		visit(s.Name)
	}
	return out
}
