package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrUnsupportedVerb = errors.New("unsupported verb")

type UnsupportedVerbError struct {
	Backend Backend
	Verb    Verb
}

func (e *UnsupportedVerbError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("unsupported verb %q", e.Verb)
	}
	return fmt.Sprintf("unsupported verb %q for backend %s", e.Verb, e.Backend)
}

func (e *UnsupportedVerbError) Is(target error) bool { return target == ErrUnsupportedVerb }
