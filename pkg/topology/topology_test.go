package topology

import (
	"testing"
	"time"

	"github.com/go-go-golems/orchestrate/pkg/config"
	"github.com/go-go-golems/orchestrate/pkg/ready"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func svc(name string, deps ...string) Service {
	return Service{Name: name, DependsOn: deps}
}

func TestResolve_AllReturnsDeclarationOrder(t *testing.T) {
	top, err := Load([]Service{
		svc("api", "db", "cache"),
		svc("db"),
		svc("cache"),
		svc("worker", "api"),
	})
	require.NoError(t, err)

	for _, target := range []string{"", "all", " all "} {
		got, err := top.Resolve(target)
		require.NoError(t, err)
		var names []string
		for _, s := range got {
			names = append(names, s.Name)
		}
		require.Equal(t, []string{"api", "db", "cache", "worker"}, names, target)
	}
}

func TestResolve_SingleServiceOnly(t *testing.T) {
	top, err := Load([]Service{svc("db"), svc("api", "db")})
	require.NoError(t, err)

	got, err := top.Resolve("api")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "api", got[0].Name)
}

func TestResolve_UnknownService(t *testing.T) {
	top, err := Load([]Service{svc("db")})
	require.NoError(t, err)

	_, err = top.Resolve("search")
	require.ErrorIs(t, err, ErrUnknownService)
	var ue *UnknownServiceError
	require.True(t, errors.As(err, &ue))
	require.Equal(t, "search", ue.Service)
}

func TestLoad_Cycles(t *testing.T) {
	cases := map[string][]Service{
		"self":  {svc("db", "db")},
		"pair":  {svc("a", "b"), svc("b", "a")},
		"three": {svc("x"), svc("a", "c"), svc("b", "a"), svc("c", "b")},
	}
	for name, services := range cases {
		_, err := Load(services)
		require.Error(t, err, name)
		require.ErrorIs(t, err, ErrConfig, name)
		var ce *CyclicDependencyError
		require.True(t, errors.As(err, &ce), name)
		require.Equal(t, ce.Path[0], ce.Path[len(ce.Path)-1], name)
	}
}

func TestLoad_DanglingReference(t *testing.T) {
	_, err := Load([]Service{svc("api", "db")})
	require.ErrorIs(t, err, ErrConfig)
	var de *DanglingReferenceError
	require.True(t, errors.As(err, &de))
	require.Equal(t, "api", de.Service)
	require.Equal(t, "db", de.Missing)
}

func TestLoad_RejectsBadServices(t *testing.T) {
	cases := map[string][]Service{
		"empty name": {svc("")},
		"reserved":   {svc("all")},
		"duplicate":  {svc("db"), svc("db")},
		"tcp port":   {{Name: "db", Health: &HealthCheck{Type: HealthTCP}}},
		"http":       {{Name: "api", Health: &HealthCheck{Type: HealthHTTP}}},
		"delay":      {{Name: "mq", Health: &HealthCheck{Type: HealthDelay}}},
		"type":       {{Name: "mq", Health: &HealthCheck{Type: "grpc", Port: 1}}},
	}
	for name, services := range cases {
		_, err := Load(services)
		require.ErrorIs(t, err, ErrConfig, name)
	}
}

func TestLoad_IsolatedFromCallerMutation(t *testing.T) {
	in := []Service{svc("db"), {Name: "api", DependsOn: []string{"db"}, Env: map[string]string{"A": "1"}}}
	top, err := Load(in)
	require.NoError(t, err)

	in[1].DependsOn[0] = "mutated"
	in[1].Env["A"] = "2"

	api, ok := top.Get("api")
	require.True(t, ok)
	require.Equal(t, []string{"db"}, api.DependsOn)
	require.Equal(t, "1", api.Env["A"])
}

func TestAccessorsReturnCopies(t *testing.T) {
	top, err := Load([]Service{svc("db"), {
		Name:      "api",
		DependsOn: []string{"db"},
		Env:       map[string]string{"A": "1"},
		Commands:  map[string]map[string][][]string{"docker": {"up": {{"true"}}}},
	}})
	require.NoError(t, err)

	all := top.Services()
	all[1].DependsOn[0] = "mutated"
	all[1].Env["A"] = "2"
	all[1].Commands["docker"]["up"][0][0] = "false"

	resolved, err := top.Resolve("api")
	require.NoError(t, err)
	resolved[0].Env["A"] = "3"

	api, ok := top.Get("api")
	require.True(t, ok)
	require.Equal(t, []string{"db"}, api.DependsOn)
	require.Equal(t, "1", api.Env["A"])
	steps, ok := api.CommandTemplate("docker", "up")
	require.True(t, ok)
	require.Equal(t, [][]string{{"true"}}, steps)
	require.Equal(t, []string{"db", "api"}, top.Order())
}

func TestOrder_DependenciesFirst(t *testing.T) {
	top, err := Load([]Service{
		svc("worker", "api", "mq"),
		svc("api", "db"),
		svc("db"),
		svc("mq"),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"db", "api", "mq", "worker"}, top.Order())
}

func TestChecks_FromHealthDescriptors(t *testing.T) {
	top, err := Load([]Service{
		{Name: "mongodb", Health: &HealthCheck{Type: HealthTCP, Port: 27017}},
		{Name: "redis", Health: &HealthCheck{Type: HealthTCP, Host: "redis-service", Port: 6379, Timeout: time.Second}},
		{Name: "api", DependsOn: []string{"mongodb", "redis"}, Health: &HealthCheck{Type: HealthHTTP, Port: 8000, Path: "api/health"}},
		{Name: "search", Health: &HealthCheck{Type: HealthDelay, Delay: 5 * time.Second}},
		{Name: "dashboard"},
	})
	require.NoError(t, err)

	checks, err := top.Checks()
	require.NoError(t, err)
	require.Len(t, checks, 4)

	require.Equal(t, "mongodb:27017", checks[0].Target())
	require.Equal(t, ready.StrategyTCP, checks[0].Strategy())
	require.Equal(t, "redis-service:6379", checks[1].Target())
	require.Equal(t, time.Second, checks[1].Timeout())
	require.Equal(t, "http://api:8000/api/health", checks[2].Target())
	require.Equal(t, ready.StrategyHTTP, checks[2].Strategy())
	require.Equal(t, ready.StrategyDelay, checks[3].Strategy())

	deps, err := top.DependencyChecks("api")
	require.NoError(t, err)
	require.Len(t, deps, 2)
	require.Equal(t, "mongodb", deps[0].Name())
	require.Equal(t, "redis", deps[1].Name())

	_, err = top.Checks("nope")
	require.ErrorIs(t, err, ErrUnknownService)

	_, err = top.Checks("mongodb", "dashboard")
	require.ErrorIs(t, err, ErrConfig)
	require.Contains(t, err.Error(), "dashboard")

	deps, err = top.DependencyChecks("mongodb")
	require.NoError(t, err)
	require.Empty(t, deps)
}

func TestFromConfig(t *testing.T) {
	cfg := &config.File{Services: []config.Service{
		{Name: "postgres", Health: &config.Health{Type: "TCP", Port: 5432}},
		{Name: "celery", DependsOn: []string{"postgres"}, Commands: map[string]map[string][][]string{
			"docker": {"up": {{"docker", "compose", "up", "-d", "celery-worker"}}},
		}},
	}}
	top, err := FromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"postgres", "celery"}, top.Names())

	pg, _ := top.Get("postgres")
	require.Equal(t, HealthTCP, pg.Health.Type)

	celery, _ := top.Get("celery")
	steps, ok := celery.CommandTemplate("docker", "up")
	require.True(t, ok)
	require.Equal(t, [][]string{{"docker", "compose", "up", "-d", "celery-worker"}}, steps)
	_, ok = celery.CommandTemplate("podman", "up")
	require.False(t, ok)
}
