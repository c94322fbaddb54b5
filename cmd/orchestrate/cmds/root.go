package cmds

import (
	"github.com/go-go-golems/orchestrate/pkg/engine"
	"github.com/spf13/cobra"
)

func AddCommands(root *cobra.Command) error {
	root.AddCommand(newWaitCmd())
	root.AddCommand(newLifecycleCmd(engine.VerbBuild, "Build images for the target services"))
	root.AddCommand(newLifecycleCmd(engine.VerbUp, "Start the target services"))
	root.AddCommand(newLifecycleCmd(engine.VerbRestart, "Restart the target services"))
	root.AddCommand(newLifecycleCmd(engine.VerbClean, "Stop and remove the target services and their volumes"))
	root.AddCommand(newPlanCmd())
	root.AddCommand(newTopologyCmd())
	root.AddCommand(newStatusCmd())
	return nil
}
