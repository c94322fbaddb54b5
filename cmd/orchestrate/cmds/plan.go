package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/go-go-golems/orchestrate/pkg/dispatch"
	"github.com/go-go-golems/orchestrate/pkg/engine"
	"github.com/go-go-golems/orchestrate/pkg/state"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	var flags dispatchFlags

	cmd := &cobra.Command{
		Use:   "plan <verb>",
		Short: "Print the engine commands a lifecycle verb would run, as JSON",
		Args:  cobra.ExactArgs(1),
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

			d, err := dispatch.New(dispatch.Options{
				Topology: top,
				Engine:   engine.Options{ComposeFile: cfg.ComposeFile, Project: cfg.Project},
				DryRun:   true,
			})
			if err != nil {
				return err
			}
			specs, err := d.Plan(args[0], target, backend)
			if err != nil {
				return err
			}
			for i := range specs {
				specs[i].Env = state.SanitizeEnv(specs[i].Env)
			}

			b, err := json.MarshalIndent(map[string]any{
				"verb":     args[0],
				"target":   target,
				"backend":  backend,
				"commands": specs,
			}, "", "  ")
			if err != nil {
				return errors.Wrap(err, "marshal plan")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	flags.add(cmd)
	return cmd
}
