package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFilename = ".orchestrate.yaml"

const (
	DefaultTimeout  = 120 * time.Second
	DefaultInterval = 2 * time.Second
	DefaultBackend  = "docker"
)

const (
	EnvTimeout  = "ORCHESTRATE_TIMEOUT"
	EnvInterval = "ORCHESTRATE_INTERVAL"
	EnvBackend  = "ORCHESTRATE_BACKEND"
	EnvTarget   = "ORCHESTRATE_TARGET"
)

type File struct {
	Project     string    `yaml:"project,omitempty"`
	ComposeFile string    `yaml:"compose_file,omitempty"`
	Backend     string    `yaml:"backend,omitempty"` // "docker" | "podman"
	Target      string    `yaml:"target,omitempty"`
	Gate        Gate      `yaml:"gate,omitempty"`
	Bootstrap   Bootstrap `yaml:"bootstrap,omitempty"`
	Services    []Service `yaml:"services"`
}

type Gate struct {
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
}

// Bootstrap describes the one-shot job run by `orchestrate wait`.
type Bootstrap struct {
	Name    string   `yaml:"name,omitempty"`
	For     []string `yaml:"for,omitempty"`
	Command []string `yaml:"command,omitempty"`
}

type Service struct {
	Name      string            `yaml:"name"`
	DependsOn []string          `yaml:"depends_on,omitempty"`
	Health    *Health           `yaml:"health,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
	// Commands overrides the engine defaults: backend -> verb -> argv steps.
	Commands map[string]map[string][][]string `yaml:"commands,omitempty"`
}

type Health struct {
	Type         string        `yaml:"type"` // "tcp" | "http" | "delay"
	Host         string        `yaml:"host,omitempty"`
	Port         int           `yaml:"port,omitempty"`
	Scheme       string        `yaml:"scheme,omitempty"`
	Path         string        `yaml:"path,omitempty"`
	URL          string        `yaml:"url,omitempty"`
	ExpectStatus int           `yaml:"expect_status,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	Delay        time.Duration `yaml:"delay,omitempty"`
}

func DefaultPath(projectDir string) string {
	return filepath.Join(projectDir, DefaultConfigFilename)
}

func LoadFromFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(b)
}

func Parse(b []byte) (*File, error) {
	var cfg File
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config yaml")
	}
	cfg.expandEnv(os.Getenv)
	return &cfg, nil
}

func LoadOptional(path string) (*File, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, errors.Wrap(err, "stat config")
	}
	return LoadFromFile(path)
}

// expandEnv resolves ${VAR} references in service env values.
func (f *File) expandEnv(getenv func(string) string) {
	for i := range f.Services {
		for k, v := range f.Services[i].Env {
			f.Services[i].Env[k] = os.Expand(v, getenv)
		}
	}
}

// ApplyEnv overrides gate tuning, backend and target from ORCHESTRATE_* variables.
func (f *File) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "parse %s", EnvTimeout)
		}
		f.Gate.Timeout = d
	}
	if v, ok := lookup(EnvInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "parse %s", EnvInterval)
		}
		f.Gate.Interval = d
	}
	if v, ok := lookup(EnvBackend); ok && v != "" {
		f.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvTarget); ok && v != "" {
		f.Target = strings.TrimSpace(v)
	}
	return nil
}

// ApplyDefaults fills unset values. projectDir names the compose project when
// none is configured.
func (f *File) ApplyDefaults(projectDir string) {
	if f.Gate.Timeout <= 0 {
		f.Gate.Timeout = DefaultTimeout
	}
	if f.Gate.Interval <= 0 {
		f.Gate.Interval = DefaultInterval
	}
	if f.Backend == "" {
		f.Backend = DefaultBackend
	}
	if f.Project == "" && projectDir != "" {
		f.Project = filepath.Base(projectDir)
	}
	if f.Bootstrap.Name == "" {
		f.Bootstrap.Name = "bootstrap"
	}
}
