package engine

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

type Backend string

const (
	BackendDocker Backend = "docker"
	BackendPodman Backend = "podman"
)

var Backends = []Backend{BackendDocker, BackendPodman}

func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendDocker:
		return BackendDocker, nil
	case BackendPodman:
		return BackendPodman, nil
	default:
		return "", errors.Errorf("unknown backend %q (want docker or podman)", s)
	}
}

var _ pflag.Value = (*Backend)(nil)

func (b *Backend) String() string { return string(*b) }
func (b *Backend) Type() string   { return "backend" }
func (b *Backend) Set(s string) error {
	v, err := ParseBackend(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

type Verb string

const (
	VerbBuild   Verb = "build"
	VerbUp      Verb = "up"
	VerbRestart Verb = "restart"
	VerbClean   Verb = "clean"
)

var Verbs = []Verb{VerbBuild, VerbUp, VerbRestart, VerbClean}

// ParseVerb fails with UnsupportedVerbError for anything outside the
// lifecycle verb set.
func ParseVerb(s string) (Verb, error) {
	v := Verb(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Verbs {
		if v == known {
			return v, nil
		}
	}
	return "", &UnsupportedVerbError{Verb: Verb(s)}
}

// CommandSpec is the concrete invocation for one service: one or more argv
// steps run in order.
type CommandSpec struct {
	Backend Backend           `json:"backend"`
	Verb    Verb              `json:"verb"`
	Service string            `json:"service"`
	Steps   [][]string        `json:"steps"`
	Env     map[string]string `json:"env,omitempty"`
}

func (c CommandSpec) String() string {
	parts := make([]string, 0, len(c.Steps))
	for _, step := range c.Steps {
		parts = append(parts, strings.Join(step, " "))
	}
	return strings.Join(parts, " && ")
}
