package topology

import (
	"net"
	"strconv"
	"strings"

	"github.com/go-go-golems/orchestrate/pkg/ready"
	"github.com/pkg/errors"
)

// Checks builds readiness checks for the named services, in the order given.
// A named service without a health descriptor is a config error, since it
// could never be observed ready. No names means every service in the
// topology that has a health descriptor.
func (t *Topology) Checks(names ...string) ([]ready.Check, error) {
	if len(names) == 0 {
		return t.checks(t.Names(), false)
	}
	return t.checks(names, true)
}

// DependencyChecks builds readiness checks for the direct dependencies of name.
// Every dependency must have a health descriptor.
func (t *Topology) DependencyChecks(name string) ([]ready.Check, error) {
	svc, ok := t.Get(name)
	if !ok {
		return nil, &UnknownServiceError{Service: name}
	}
	return t.checks(svc.DependsOn, true)
}

func (t *Topology) checks(names []string, requireHealth bool) ([]ready.Check, error) {
	out := make([]ready.Check, 0, len(names))
	seen := map[string]struct{}{}
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		svc, ok := t.Get(name)
		if !ok {
			return nil, &UnknownServiceError{Service: name}
		}
		if svc.Health == nil {
			if requireHealth {
				return nil, invalidf("service %q has no health check to wait on", name)
			}
			continue
		}
		c, err := CheckFor(svc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func CheckFor(svc Service) (ready.Check, error) {
	h := svc.Health
	if h == nil {
		return ready.Check{}, errors.Errorf("service %q has no health check", svc.Name)
	}
	host := h.Host
	if host == "" {
		host = svc.Name
	}
	switch h.Type {
	case HealthTCP:
		return ready.TCP(svc.Name, net.JoinHostPort(host, strconv.Itoa(h.Port)), h.Timeout)
	case HealthHTTP:
		return ready.HTTP(svc.Name, healthURL(host, h), h.ExpectStatus, h.Timeout)
	case HealthDelay:
		return ready.Delay(svc.Name, h.Delay)
	default:
		return ready.Check{}, invalidf("service %q has unsupported health type %q", svc.Name, h.Type)
	}
}

func healthURL(host string, h *HealthCheck) string {
	if h.URL != "" {
		return h.URL
	}
	scheme := h.Scheme
	if scheme == "" {
		scheme = "http"
	}
	path := h.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(h.Port)) + path
}
