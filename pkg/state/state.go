package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const (
	StateDirName  = ".orchestrate"
	StateFilename = "state.json"
)

// State is the record of the most recent runs in a project directory.
type State struct {
	ProjectDir   string          `json:"project_dir"`
	UpdatedAt    time.Time       `json:"updated_at"`
	LastDispatch *DispatchRecord `json:"last_dispatch,omitempty"`
	LastGate     *GateRecord     `json:"last_gate,omitempty"`
}

type DispatchRecord struct {
	RunID      string          `json:"run_id"`
	Verb       string          `json:"verb"`
	Target     string          `json:"target"`
	Backend    string          `json:"backend"`
	OK         bool            `json:"ok"`
	DryRun     bool            `json:"dry_run,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Services   []ServiceRecord `json:"services"`
}

type ServiceRecord struct {
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	Command    string            `json:"command"`
	Env        map[string]string `json:"env,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
}

type GateRecord struct {
	Job        string    `json:"job"`
	Status     string    `json:"status"`
	Pending    []string  `json:"pending,omitempty"`
	Service    string    `json:"service,omitempty"`
	Error      string    `json:"error,omitempty"`
	Rounds     int       `json:"rounds"`
	ExitCode   int       `json:"exit_code"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

func StatePath(projectDir string) string {
	return filepath.Join(projectDir, StateDirName, StateFilename)
}

func Load(projectDir string) (*State, error) {
	path := StatePath(projectDir)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read state")
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrap(err, "parse state json")
	}
	return &s, nil
}

// LoadOptional returns an empty State when none has been saved yet.
func LoadOptional(projectDir string) (*State, error) {
	s, err := Load(projectDir)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return &State{ProjectDir: projectDir}, nil
		}
		return nil, err
	}
	return s, nil
}

func Save(projectDir string, s *State) error {
	if s == nil {
		return errors.New("nil state")
	}
	dir := filepath.Dir(StatePath(projectDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir state dir")
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal state")
	}
	if err := os.WriteFile(StatePath(projectDir), b, 0o644); err != nil {
		return errors.Wrap(err, "write state")
	}
	return nil
}

// Update loads the current state, applies fn and saves the result.
// Env maps in dispatch records are redacted before writing.
func Update(projectDir string, fn func(s *State)) error {
	s, err := LoadOptional(projectDir)
	if err != nil {
		return err
	}
	fn(s)
	s.ProjectDir = projectDir
	s.UpdatedAt = time.Now()
	if s.LastDispatch != nil {
		for i := range s.LastDispatch.Services {
			s.LastDispatch.Services[i].Env = SanitizeEnv(s.LastDispatch.Services[i].Env)
		}
	}
	return Save(projectDir, s)
}

func Remove(projectDir string) error {
	path := StatePath(projectDir)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "remove state")
	}
	return nil
}
