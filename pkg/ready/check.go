package ready

import (
	"time"

	"github.com/pkg/errors"
)

type Strategy string

const (
	StrategyTCP   Strategy = "tcp-connect"
	StrategyHTTP  Strategy = "http-get"
	StrategyDelay Strategy = "fixed-delay"
)

const DefaultAttemptTimeout = 1 * time.Second

// ParseStrategy accepts the canonical strategy names plus the short forms
// used in config files ("tcp", "http", "delay").
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "tcp", string(StrategyTCP):
		return StrategyTCP, nil
	case "http", string(StrategyHTTP):
		return StrategyHTTP, nil
	case "delay", string(StrategyDelay):
		return StrategyDelay, nil
	default:
		return "", errors.Errorf("unknown readiness strategy %q", s)
	}
}

// Check describes how to decide whether one dependency is ready.
// Fields are unexported so a Check cannot change after construction.
type Check struct {
	name         string
	strategy     Strategy
	target       string
	timeout      time.Duration
	delay        time.Duration
	expectStatus int
}

func (c Check) Name() string           { return c.name }
func (c Check) Strategy() Strategy     { return c.strategy }
func (c Check) Target() string         { return c.target }
func (c Check) Timeout() time.Duration { return c.timeout }
func (c Check) Delay() time.Duration   { return c.delay }

// ExpectStatus is the exact HTTP status required, or 0 for any 2xx/3xx.
func (c Check) ExpectStatus() int { return c.expectStatus }

// TCP builds a tcp-connect check against host:port.
func TCP(name, address string, timeout time.Duration) (Check, error) {
	if name == "" {
		return Check{}, errors.New("readiness check missing name")
	}
	if address == "" {
		return Check{}, errors.Errorf("readiness check %q missing address", name)
	}
	return Check{name: name, strategy: StrategyTCP, target: address, timeout: attemptTimeout(timeout)}, nil
}

// HTTP builds an http-get check. expectStatus of 0 accepts any status in [200,399].
func HTTP(name, url string, expectStatus int, timeout time.Duration) (Check, error) {
	if name == "" {
		return Check{}, errors.New("readiness check missing name")
	}
	if url == "" {
		return Check{}, errors.Errorf("readiness check %q missing url", name)
	}
	if expectStatus != 0 && (expectStatus < 100 || expectStatus > 599) {
		return Check{}, errors.Errorf("readiness check %q has invalid expected status %d", name, expectStatus)
	}
	return Check{
		name:         name,
		strategy:     StrategyHTTP,
		target:       url,
		timeout:      attemptTimeout(timeout),
		expectStatus: expectStatus,
	}, nil
}

// Delay builds a fixed-delay check. It cannot observe the dependency at all
// and only waits; use it for services that expose nothing to probe.
func Delay(name string, d time.Duration) (Check, error) {
	if name == "" {
		return Check{}, errors.New("readiness check missing name")
	}
	if d <= 0 {
		return Check{}, errors.Errorf("readiness check %q needs a positive delay", name)
	}
	return Check{name: name, strategy: StrategyDelay, delay: d}, nil
}

func attemptTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultAttemptTimeout
	}
	return d
}
