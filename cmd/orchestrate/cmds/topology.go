package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/go-go-golems/orchestrate/pkg/topology"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newTopologyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Validate the configured topology and print it with its startup order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			_, top, err := loadProject(opts)
			if err != nil {
				return err
			}

			type svc struct {
				Name      string   `json:"name"`
				DependsOn []string `json:"depends_on,omitempty"`
				Readiness string   `json:"readiness,omitempty"`
				Target    string   `json:"readiness_target,omitempty"`
			}
			var services []svc
			for _, s := range top.Services() {
				out := svc{Name: s.Name, DependsOn: s.DependsOn}
				if s.Health != nil {
					c, err := topology.CheckFor(s)
					if err != nil {
						return err
					}
					out.Readiness = string(c.Strategy())
					out.Target = c.Target()
				}
				services = append(services, out)
			}

			b, err := json.MarshalIndent(map[string]any{
				"services": services,
				"order":    top.Order(),
			}, "", "  ")
			if err != nil {
				return errors.Wrap(err, "marshal topology")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
