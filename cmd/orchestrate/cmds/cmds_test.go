package cmds

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-go-golems/orchestrate/pkg/bootstrap"
	"github.com/go-go-golems/orchestrate/pkg/config"
	"github.com/go-go-golems/orchestrate/pkg/engine"
	"github.com/go-go-golems/orchestrate/pkg/events"
	"github.com/go-go-golems/orchestrate/pkg/state"
	"github.com/go-go-golems/orchestrate/pkg/topology"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultConfigFilename), []byte(yaml), 0o644))
	return dir
}

func runRoot(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	root := &cobra.Command{Use: "orchestrate", SilenceUsage: true, SilenceErrors: true}
	AddRootFlags(root)
	require.NoError(t, AddCommands(root))

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--project-dir", dir, "--no-color"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

const lifecycleProject = `
project: shop
services:
  - name: db
    commands:
      docker:
        up: [["true"]]
  - name: api
    depends_on: [db]
    commands:
      docker:
        up: [["false"]]
  - name: worker
    depends_on: [api]
`

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, 2, ExitCode(&ExitError{Code: bootstrap.ExitTimedOut}))
	require.Equal(t, 4, ExitCode(errors.Wrap(&topology.CyclicDependencyError{Path: []string{"a", "b", "a"}}, "load")))
	require.Equal(t, 4, ExitCode(&topology.UnknownServiceError{Service: "x"}))
	require.Equal(t, 4, ExitCode(&engine.UnsupportedVerbError{Backend: engine.BackendDocker, Verb: "deploy"}))
	require.Equal(t, 1, ExitCode(errors.New("boom")))
}

func TestReportErrorSkipsAlreadyReported(t *testing.T) {
	var buf bytes.Buffer
	ReportError(&buf, &ExitError{Code: 2})
	require.Empty(t, buf.String())

	ReportError(&buf, errors.New("boom"))
	require.Equal(t, "orchestrate: boom\n", buf.String())
}

func TestUpDryRunPlansEveryServiceInOrder(t *testing.T) {
	dir := writeProject(t, lifecycleProject)

	out, _, err := runRoot(t, dir, "up", "--dry-run")
	require.NoError(t, err)
	require.Contains(t, out, "db")
	require.Contains(t, out, "worker")
	require.Contains(t, out, "docker compose -p shop up -d worker")

	st, err := state.Load(dir)
	require.NoError(t, err)
	require.NotNil(t, st.LastDispatch)
	require.True(t, st.LastDispatch.DryRun)
	require.Len(t, st.LastDispatch.Services, 3)
	for _, s := range st.LastDispatch.Services {
		require.Equal(t, "planned", s.Status)
	}
}

func TestEventsFlagPrintsDispatchLifecycle(t *testing.T) {
	dir := writeProject(t, lifecycleProject)

	_, stderr, err := runRoot(t, dir, "--events", "up", "--dry-run")
	require.NoError(t, err)

	var types []string
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		env, err := events.ParseEnvelope([]byte(line))
		require.NoError(t, err, line)
		types = append(types, env.Type)
	}
	require.Equal(t, []string{events.TypeDispatchStarted, events.TypeDispatchFinished}, types)
}

func TestEventsFlagPrintsServiceEvents(t *testing.T) {
	dir := writeProject(t, lifecycleProject)

	_, stderr, err := runRoot(t, dir, "--events", "up", "--target", "db")
	require.NoError(t, err)
	for _, typ := range []string{
		events.TypeDispatchStarted,
		events.TypeServiceStarted,
		events.TypeServiceFinished,
		events.TypeDispatchFinished,
	} {
		require.Contains(t, stderr, `"type":"`+typ+`"`)
	}
}

func TestUpHaltsOnFirstFailure(t *testing.T) {
	dir := writeProject(t, lifecycleProject)

	_, _, err := runRoot(t, dir, "up")
	require.Error(t, err)
	require.Equal(t, 1, ExitCode(err))

	st, err := state.Load(dir)
	require.NoError(t, err)
	got := map[string]string{}
	for _, s := range st.LastDispatch.Services {
		got[s.Name] = s.Status
	}
	require.Equal(t, map[string]string{"db": "succeeded", "api": "failed", "worker": "skipped"}, got)
}

func TestUnknownTargetIsConfigError(t *testing.T) {
	dir := writeProject(t, lifecycleProject)

	_, _, err := runRoot(t, dir, "restart", "--target", "nope")
	require.Error(t, err)
	require.Equal(t, 4, ExitCode(err))
}

func TestBadBackendFlagIsRejected(t *testing.T) {
	dir := writeProject(t, lifecycleProject)

	_, _, err := runRoot(t, dir, "up", "--backend", "lxc")
	require.Error(t, err)
}

func TestPlanUnsupportedVerb(t *testing.T) {
	dir := writeProject(t, lifecycleProject)

	_, _, err := runRoot(t, dir, "plan", "deploy")
	require.Error(t, err)
	require.Equal(t, 4, ExitCode(err))
}

func TestPlanPodmanClean(t *testing.T) {
	dir := writeProject(t, lifecycleProject)

	out, _, err := runRoot(t, dir, "plan", "clean", "--backend", "podman", "--target", "worker")
	require.NoError(t, err)

	var plan struct {
		Backend  string               `json:"backend"`
		Commands []engine.CommandSpec `json:"commands"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	require.Equal(t, "podman", plan.Backend)
	require.Len(t, plan.Commands, 1)
	require.Equal(t, "worker", plan.Commands[0].Service)
}

func TestTopologyPrintsOrder(t *testing.T) {
	dir := writeProject(t, lifecycleProject)

	out, _, err := runRoot(t, dir, "topology")
	require.NoError(t, err)

	var top struct {
		Order []string `json:"order"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &top))
	require.Equal(t, []string{"db", "api", "worker"}, top.Order)
}

func TestTopologyCycleIsConfigError(t *testing.T) {
	dir := writeProject(t, `
services:
  - name: a
    depends_on: [b]
  - name: b
    depends_on: [a]
`)
	_, _, err := runRoot(t, dir, "topology")
	require.Error(t, err)
	require.Equal(t, 4, ExitCode(err))
}

func TestMissingConfigIsConfigError(t *testing.T) {
	_, _, err := runRoot(t, t.TempDir(), "up")
	require.Error(t, err)
	require.Equal(t, 4, ExitCode(err))
}

func TestWaitRunsJobOnceReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	dir := writeProject(t, `
services:
  - name: db
    health:
      type: tcp
      host: 127.0.0.1
      port: `+strconv.Itoa(port)+`
  - name: search
    health:
      type: delay
      delay: 20ms
`)
	marker := filepath.Join(dir, "ran")
	_, _, err = runRoot(t, dir, "wait", "--timeout", "5s", "--interval", "10ms", "--", "touch", marker)
	require.NoError(t, err)
	require.FileExists(t, marker)

	st, err := state.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "ready", st.LastGate.Status)
	require.Equal(t, 0, st.LastGate.ExitCode)
}

func TestWaitTimesOutWithoutRunningJob(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	dir := writeProject(t, `
services:
  - name: db
    health:
      type: tcp
      host: 127.0.0.1
      port: `+strconv.Itoa(port)+`
`)
	marker := filepath.Join(dir, "ran")
	_, stderr, err := runRoot(t, dir, "wait", "--timeout", "100ms", "--interval", "20ms", "--", "touch", marker)
	require.Error(t, err)
	require.Equal(t, bootstrap.ExitTimedOut, ExitCode(err))
	require.NoFileExists(t, marker)
	require.Contains(t, stderr, "db")

	st, err := state.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "timed_out", st.LastGate.Status)
	require.Equal(t, []string{"db"}, st.LastGate.Pending)
}

func TestWaitForServiceWithoutHealthIsConfigError(t *testing.T) {
	dir := writeProject(t, `
services:
  - name: db
  - name: api
    depends_on: [db]
`)
	marker := filepath.Join(dir, "ran")
	_, _, err := runRoot(t, dir, "wait", "--for", "db", "--timeout", "300ms", "--", "touch", marker)
	require.Error(t, err)
	require.Equal(t, 4, ExitCode(err))
	require.Contains(t, err.Error(), "db")
	require.NoFileExists(t, marker)
}

func TestWaitUnknownServiceIsConfigError(t *testing.T) {
	dir := writeProject(t, lifecycleProject)

	_, _, err := runRoot(t, dir, "wait", "--for", "cache")
	require.Error(t, err)
	require.Equal(t, 4, ExitCode(err))
}

func TestStatusWithoutHistory(t *testing.T) {
	out, _, err := runRoot(t, t.TempDir(), "status", "--json")
	require.NoError(t, err)
	require.Contains(t, out, "project_dir")
}
