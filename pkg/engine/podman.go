package engine

// NewPodman targets podman-compose. "build" only builds; starting is a
// separate "up".
func NewPodman(opts Options) Adapter {
	return &composeAdapter{
		backend: BackendPodman,
		opts:    opts,
		base:    []string{"podman-compose"},
		verbs: map[Verb][][]string{
			VerbBuild:   {{"build", "{service}"}},
			VerbUp:      {{"up", "-d", "{service}"}},
			VerbRestart: {{"restart", "{service}"}},
			VerbClean:   {{"down", "--volumes", "{service}"}},
		},
	}
}
