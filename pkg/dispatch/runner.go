package dispatch

import (
	"context"
	"io"

	"github.com/go-go-golems/orchestrate/pkg/proc"
)

// Runner executes one argv step and waits for it to finish.
type Runner interface {
	Run(ctx context.Context, argv []string, env map[string]string) error
}

// ExecRunner runs engine commands as child processes in their own group.
type ExecRunner struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*ExecRunner)(nil)

func (r *ExecRunner) Run(ctx context.Context, argv []string, env map[string]string) error {
	return proc.Run(ctx, argv, proc.Options{
		Dir:    r.Dir,
		Env:    env,
		Stdout: r.Stdout,
		Stderr: r.Stderr,
	})
}
