package ready

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrMalformedTarget marks a check whose target can never be probed.
// The gate treats it as fatal instead of retrying.
var ErrMalformedTarget = errors.New("malformed readiness target")

// Prober performs a single readiness attempt.
//
// A (false, nil) result means "not ready yet" and should be retried; a
// non-nil error is a configuration problem that retrying cannot fix.
type Prober interface {
	Probe(ctx context.Context, c Check) (bool, error)
}

type NetProber struct {
	// Client is used for http-get checks. The per-check timeout always applies.
	Client *http.Client
}

var _ Prober = (*NetProber)(nil)

func NewNetProber() *NetProber {
	return &NetProber{
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (p *NetProber) Probe(ctx context.Context, c Check) (bool, error) {
	switch c.Strategy() {
	case StrategyTCP:
		return probeTCP(ctx, c)
	case StrategyHTTP:
		return p.probeHTTP(ctx, c)
	case StrategyDelay:
		return probeDelay(ctx, c)
	default:
		return false, errors.Errorf("check %q: unsupported strategy %q", c.Name(), c.Strategy())
	}
}

func probeTCP(ctx context.Context, c Check) (bool, error) {
	if err := validateAddress(c.Target()); err != nil {
		return false, errors.Wrapf(err, "check %q", c.Name())
	}

	d := net.Dialer{Timeout: c.Timeout()}
	conn, err := d.DialContext(ctx, "tcp", c.Target())
	if err != nil {
		log.Debug().Str("check", c.Name()).Err(err).Msg("tcp not ready")
		return false, nil
	}
	_ = conn.Close()
	return true, nil
}

func validateAddress(address string) error {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return errors.Wrapf(ErrMalformedTarget, "address %q: %v", address, err)
	}
	if host == "" {
		return errors.Wrapf(ErrMalformedTarget, "address %q: missing host", address)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return errors.Wrapf(ErrMalformedTarget, "address %q: invalid port", address)
	}
	return nil
}

func (p *NetProber) probeHTTP(ctx context.Context, c Check) (bool, error) {
	u, err := url.Parse(c.Target())
	if err != nil {
		return false, errors.Wrapf(ErrMalformedTarget, "check %q: url %q: %v", c.Name(), c.Target(), err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false, errors.Wrapf(ErrMalformedTarget, "check %q: url %q needs http(s) scheme and host", c.Name(), c.Target())
	}

	client := p.Client
	if client == nil {
		client = NewNetProber().Client
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, errors.Wrapf(ErrMalformedTarget, "check %q: %v", c.Name(), err)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Debug().Str("check", c.Name()).Err(err).Msg("http not ready")
		return false, nil
	}
	_ = resp.Body.Close()

	if want := c.ExpectStatus(); want != 0 {
		return resp.StatusCode == want, nil
	}
	return resp.StatusCode >= 200 && resp.StatusCode < 400, nil
}

func probeDelay(ctx context.Context, c Check) (bool, error) {
	t := time.NewTimer(c.Delay())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false, nil
	case <-t.C:
		return true, nil
	}
}
