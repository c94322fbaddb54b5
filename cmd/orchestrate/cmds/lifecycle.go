package cmds

import (
	"github.com/go-go-golems/orchestrate/pkg/config"
	"github.com/go-go-golems/orchestrate/pkg/dispatch"
	"github.com/go-go-golems/orchestrate/pkg/engine"
	"github.com/go-go-golems/orchestrate/pkg/state"
	"github.com/go-go-golems/orchestrate/pkg/topology"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type dispatchFlags struct {
	target  string
	backend engine.Backend
}

func (f *dispatchFlags) add(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.target, "target", "", "Service to operate on (default: all)")
	cmd.Flags().Var(&f.backend, "backend", "Container engine backend: docker|podman (default from config)")
}

// resolve fills unset flags from the config file and environment.
func (f *dispatchFlags) resolve(cmd *cobra.Command, cfg *config.File) (string, engine.Backend, error) {
	target := f.target
	if !cmd.Flags().Changed("target") {
		target = cfg.Target
	}
	if target == "" {
		target = topology.All
	}
	if cmd.Flags().Changed("backend") {
		return target, f.backend, nil
	}
	b, err := engine.ParseBackend(cfg.Backend)
	if err != nil {
		return "", "", configError(err)
	}
	return target, b, nil
}

func newLifecycleCmd(verb engine.Verb, short string) *cobra.Command {
	var flags dispatchFlags
	var dryRun bool

	cmd := &cobra.Command{
		Use:   string(verb),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			cfg, top, err := loadProject(opts)
			if err != nil {
				return err
			}
			target, backend, err := flags.resolve(cmd, cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			emitter, stop, err := startEventBus(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer stop()

			d, err := dispatch.New(dispatch.Options{
				Topology: top,
				Engine:   engine.Options{ComposeFile: cfg.ComposeFile, Project: cfg.Project},
				Runner: &dispatch.ExecRunner{
					Dir:    opts.ProjectDir,
					Stdout: cmd.OutOrStdout(),
					Stderr: cmd.ErrOrStderr(),
				},
				Events: emitter,
				DryRun: dryRun,
			})
			if err != nil {
				return err
			}

			res, runErr := d.Dispatch(ctx, string(verb), target, backend)
			if res.RunID == "" {
				return runErr
			}
			if err := renderer(opts).Dispatch(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if err := state.Update(opts.ProjectDir, func(s *state.State) { s.LastDispatch = dispatchRecord(res) }); err != nil {
				log.Warn().Err(err).Msg("could not record dispatch result")
			}
			return runErr
		},
	}

	flags.add(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the commands without running them")
	return cmd
}

func dispatchRecord(res dispatch.Result) *state.DispatchRecord {
	rec := &state.DispatchRecord{
		RunID:      res.RunID,
		Verb:       string(res.Verb),
		Target:     res.Target,
		Backend:    string(res.Backend),
		OK:         res.OK,
		DryRun:     res.DryRun,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	for _, s := range res.Services {
		rec.Services = append(rec.Services, state.ServiceRecord{
			Name:       s.Name,
			Status:     string(s.Status),
			Command:    s.Command.String(),
			Env:        s.Command.Env,
			Error:      s.Error,
			DurationMs: s.Duration.Milliseconds(),
		})
	}
	return rec
}
