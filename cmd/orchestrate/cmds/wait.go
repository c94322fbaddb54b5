package cmds

import (
	"context"
	"time"

	"github.com/go-go-golems/orchestrate/pkg/bootstrap"
	"github.com/go-go-golems/orchestrate/pkg/gate"
	"github.com/go-go-golems/orchestrate/pkg/state"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWaitCmd() *cobra.Command {
	var timeout time.Duration
	var interval time.Duration
	var forServices []string
	var jobName string

	cmd := &cobra.Command{
		Use:   "wait [-- command args...]",
		Short: "Block until dependencies are ready, then optionally run a one-shot job",
		Long: "Polls the health checks of the selected services until all of them have succeeded once " +
			"or --timeout elapses. When a command is given after --, it runs exactly once after the " +
			"dependencies are ready; a failing command is not retried.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			cfg, top, err := loadProject(opts)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("timeout") {
				cfg.Gate.Timeout = timeout
			}
			if cmd.Flags().Changed("interval") {
				cfg.Gate.Interval = interval
			}
			names := cfg.Bootstrap.For
			if len(forServices) > 0 {
				names = forServices
			}
			if jobName != "" {
				cfg.Bootstrap.Name = jobName
			}
			argv := cfg.Bootstrap.Command
			if len(args) > 0 {
				argv = args
			}

			checks, err := top.Checks(names...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			emitter, stop, err := startEventBus(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer stop()

			var body func(ctx context.Context) error
			if len(argv) > 0 {
				body = bootstrap.ExecBody(argv, opts.ProjectDir, cmd.OutOrStdout(), cmd.ErrOrStderr())
			}
			job := &bootstrap.Job{
				Name:     cfg.Bootstrap.Name,
				Interval: cfg.Gate.Interval,
				MaxWait:  cfg.Gate.Timeout,
				Stderr:   cmd.ErrOrStderr(),
				Events:   emitter,
			}
			log.Info().Str("job", job.Name).Int("checks", len(checks)).
				Dur("timeout", job.MaxWait).Dur("interval", job.Interval).Msg("waiting for dependencies")

			code := job.Run(ctx, gate.New(gate.Options{Events: emitter}), checks, body)

			res := job.LastResult
			if res.Ready() {
				if err := renderer(opts).Gate(cmd.ErrOrStderr(), job.Name, res); err != nil {
					return err
				}
			}
			rec := &state.GateRecord{
				Job:        job.Name,
				Status:     string(res.Status),
				Pending:    res.Pending,
				Service:    res.Service,
				Rounds:     res.Rounds,
				ExitCode:   code,
				FinishedAt: time.Now(),
				DurationMs: res.Elapsed.Milliseconds(),
			}
			if res.Err != nil {
				rec.Error = res.Err.Error()
			}
			if err := state.Update(opts.ProjectDir, func(s *state.State) { s.LastGate = rec }); err != nil {
				log.Warn().Err(err).Msg("could not record gate result")
			}

			if code != bootstrap.ExitOK {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall wait budget (default from config, else 2m)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default from config, else 2s)")
	cmd.Flags().StringSliceVar(&forServices, "for", nil, "Services to wait for (default: bootstrap.for, else all with health checks)")
	cmd.Flags().StringVar(&jobName, "job-name", "", "Name used in logs and state for the job")
	return cmd
}
