// Package proc runs child commands in their own process group. Cancelling the
// context sends SIGTERM to the whole group and escalates to SIGKILL after a
// grace period.
package proc

import (
	"context"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultGracePeriod = 5 * time.Second

type Options struct {
	Dir    string
	Env    map[string]string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Grace is how long a cancelled command gets between SIGTERM and SIGKILL.
	Grace time.Duration
}

// Command prepares argv with the caller's environment plus opts.Env.
func Command(ctx context.Context, argv []string, opts Options) (*exec.Cmd, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	// #nosec G204 -- commands come from the project config or the operator.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = MergeEnv(os.Environ(), opts.Env)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		pid := cmd.Process.Pid
		log.Debug().Int("pid", pid).Str("cmd", argv[0]).Msg("terminating process group")
		// The group may outlive the leader, so SIGKILL goes to the group too.
		time.AfterFunc(grace, func() {
			if err := signalGroup(pid, syscall.SIGKILL); err == nil {
				log.Debug().Int("pid", pid).Str("cmd", argv[0]).Msg("killed process group")
			}
		})
		return signalGroup(pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = grace
	return cmd, nil
}

// Run starts argv and waits for it. A non-zero exit becomes an error naming
// the command and its exit code.
func Run(ctx context.Context, argv []string, opts Options) error {
	cmd, err := Command(ctx, argv, opts)
	if err != nil {
		return err
	}
	log.Debug().Strs("argv", argv).Str("dir", opts.Dir).Msg("exec")
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "%s interrupted", argv[0])
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return errors.Errorf("%s exited with code %d", argv[0], exitErr.ExitCode())
		}
		return errors.Wrapf(err, "run %s", argv[0])
	}
	return nil
}

func signalGroup(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return nil
	}
	var err error
	if pgid, gerr := syscall.Getpgid(pid); gerr == nil {
		err = syscall.Kill(-pgid, sig)
	} else {
		err = syscall.Kill(pid, sig)
	}
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

// MergeEnv appends extra to base. Later entries win when the child reads them.
func MergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	out := append([]string{}, base...)
	for k, v := range extra {
		out = append(out, k+"="+v)
	}
	return out
}
