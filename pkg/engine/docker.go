package engine

// NewDocker targets the docker compose v2 plugin. "build" rebuilds the image
// and recreates the container.
func NewDocker(opts Options) Adapter {
	return &composeAdapter{
		backend: BackendDocker,
		opts:    opts,
		base:    []string{"docker", "compose"},
		verbs: map[Verb][][]string{
			VerbBuild:   {{"build", "{service}"}, {"up", "-d", "{service}"}},
			VerbUp:      {{"up", "-d", "{service}"}},
			VerbRestart: {{"restart", "{service}"}},
			VerbClean:   {{"rm", "--stop", "--force", "--volumes", "{service}"}},
		},
	}
}
