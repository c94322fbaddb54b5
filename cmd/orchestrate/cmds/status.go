package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/go-go-golems/orchestrate/pkg/state"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last recorded dispatch and gate results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			st, err := state.LoadOptional(opts.ProjectDir)
			if err != nil {
				return err
			}
			if !asJSON {
				return renderer(opts).State(cmd.OutOrStdout(), st)
			}
			b, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return errors.Wrap(err, "marshal status")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON state")
	return cmd
}
