package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/orchestrate/pkg/config"
	"github.com/go-go-golems/orchestrate/pkg/events"
	"github.com/go-go-golems/orchestrate/pkg/report"
	"github.com/go-go-golems/orchestrate/pkg/topology"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	ProjectDir string
	Config     string
	Events     bool
	NoColor    bool
}

func AddRootFlags(root *cobra.Command) {
	root.PersistentFlags().String("project-dir", "", "Project directory (defaults to current directory)")
	root.PersistentFlags().String("config", "", "Path to config file (defaults to .orchestrate.yaml under project-dir)")
	root.PersistentFlags().Bool("events", false, "Print lifecycle events as JSON lines on stderr")
	root.PersistentFlags().Bool("no-color", false, "Disable styled output")
}

func getRootOptions(cmd *cobra.Command) (rootOptions, error) {
	projectDir, err := cmd.Root().PersistentFlags().GetString("project-dir")
	if err != nil {
		return rootOptions{}, err
	}
	if projectDir == "" {
		projectDir, err = os.Getwd()
		if err != nil {
			return rootOptions{}, err
		}
	}
	projectDir, err = filepath.Abs(projectDir)
	if err != nil {
		return rootOptions{}, err
	}

	cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return rootOptions{}, err
	}
	if cfgPath == "" {
		cfgPath = config.DefaultPath(projectDir)
	} else if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(projectDir, cfgPath)
	}

	printEvents, err := cmd.Root().PersistentFlags().GetBool("events")
	if err != nil {
		return rootOptions{}, err
	}
	noColor, err := cmd.Root().PersistentFlags().GetBool("no-color")
	if err != nil {
		return rootOptions{}, err
	}

	return rootOptions{
		ProjectDir: projectDir,
		Config:     cfgPath,
		Events:     printEvents,
		NoColor:    noColor,
	}, nil
}

// loadProject reads the config file, applies ORCHESTRATE_* overrides and
// defaults, and validates the topology. Any failure here is a config error.
func loadProject(opts rootOptions) (*config.File, *topology.Topology, error) {
	cfg, err := config.LoadOptional(opts.Config)
	if err != nil {
		return nil, nil, configError(err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, nil, configError(err)
	}
	cfg.ApplyDefaults(opts.ProjectDir)

	top, err := topology.FromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	if top.Len() == 0 {
		return nil, nil, configError(errors.Errorf("no services configured (add %s)", config.DefaultConfigFilename))
	}
	log.Debug().Str("config", opts.Config).Int("services", top.Len()).Msg("topology loaded")
	return cfg, top, nil
}

// startEventBus wires an in-memory bus whose handler logs every event and,
// with --events, echoes it to w. The returned stop func drains the router.
func startEventBus(ctx context.Context, opts rootOptions, w io.Writer) (events.Emitter, func(), error) {
	bus, err := events.NewInMemoryBus()
	if err != nil {
		return nil, nil, err
	}
	bus.AddHandler("orchestrate-event-log", events.TopicOrchestrateEvents, func(msg *message.Message) error {
		defer msg.Ack()
		env, err := events.ParseEnvelope(msg.Payload)
		if err != nil {
			log.Warn().Err(err).Msg("bad event envelope")
			return nil
		}
		ev := log.Debug().Str("component", env.Component()).Str("type", env.Type)
		if len(env.Payload) > 0 {
			ev = ev.RawJSON("payload", env.Payload)
		}
		ev.Msg("event")
		if opts.Events {
			_, _ = fmt.Fprintln(w, string(msg.Payload))
		}
		return nil
	})

	stop, err := bus.Start(ctx)
	if err != nil {
		return nil, nil, err
	}
	return events.NewPublisherEmitter(bus.Publisher), stop, nil
}

func renderer(opts rootOptions) *report.Renderer {
	return report.New(!opts.NoColor)
}
