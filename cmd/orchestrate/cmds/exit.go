package cmds

import (
	"fmt"
	"io"

	"github.com/go-go-golems/orchestrate/pkg/bootstrap"
	"github.com/go-go-golems/orchestrate/pkg/engine"
	"github.com/go-go-golems/orchestrate/pkg/topology"
	"github.com/pkg/errors"
)

// ExitError carries a specific process exit code. A nil Err means the
// failure was already reported to the operator.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// configError marks failures to load or interpret project configuration.
func configError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: bootstrap.ExitConfig, Err: err}
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	if errors.Is(err, topology.ErrConfig) ||
		errors.Is(err, topology.ErrUnknownService) ||
		errors.Is(err, engine.ErrUnsupportedVerb) {
		return bootstrap.ExitConfig
	}
	return 1
}

// ReportError writes the single operator-facing failure line.
func ReportError(w io.Writer, err error) {
	var ee *ExitError
	if errors.As(err, &ee) && ee.Err == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "orchestrate: %v\n", err)
}
