package topology

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrConfig is matched by every load-time topology error.
var ErrConfig = errors.New("invalid topology")

var ErrUnknownService = errors.New("unknown service")

type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Path, " -> "))
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrConfig }

type DanglingReferenceError struct {
	Service string
	Missing string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("service %q depends on undeclared service %q", e.Service, e.Missing)
}

func (e *DanglingReferenceError) Is(target error) bool { return target == ErrConfig }

type DuplicateServiceError struct {
	Service string
}

func (e *DuplicateServiceError) Error() string {
	return fmt.Sprintf("duplicate service %q", e.Service)
}

func (e *DuplicateServiceError) Is(target error) bool { return target == ErrConfig }

type UnknownServiceError struct {
	Service string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q", e.Service)
}

func (e *UnknownServiceError) Is(target error) bool { return target == ErrUnknownService }

type invalidServiceError struct {
	msg string
}

func (e *invalidServiceError) Error() string        { return e.msg }
func (e *invalidServiceError) Is(target error) bool { return target == ErrConfig }

func invalidf(format string, args ...any) error {
	return &invalidServiceError{msg: fmt.Sprintf(format, args...)}
}
