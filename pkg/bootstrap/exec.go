package bootstrap

import (
	"context"
	"io"

	"github.com/go-go-golems/orchestrate/pkg/proc"
)

// ExecBody returns a job body that runs argv with stdout and stderr attached.
func ExecBody(argv []string, dir string, stdout, stderr io.Writer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return proc.Run(ctx, argv, proc.Options{
			Dir:    dir,
			Stdout: stdout,
			Stderr: stderr,
		})
	}
}
