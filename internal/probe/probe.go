package probe

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iougemini/kmscheck/internal/endpoint"
)

const (
	// DefaultTimeout bounds a single connection attempt.
	DefaultTimeout = 5 * time.Second
	// DefaultConcurrency caps simultaneous open sockets during a batch.
	DefaultConcurrency = 16
)

// Kind classifies why a probe failed. KindNone means the probe succeeded.
type Kind int

const (
	KindNone Kind = iota
	KindRefused
	KindTimeout
	KindDNS
	KindReset
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRefused:
		return "refused"
	case KindTimeout:
		return "timeout"
	case KindDNS:
		return "dns"
	case KindReset:
		return "reset"
	default:
		return "other"
	}
}

// Result is the outcome of probing one endpoint.
type Result struct {
	Endpoint  endpoint.Endpoint
	Reachable bool
	Kind      Kind
	Err       error
	Elapsed   time.Duration
}

// Dialer is the transport seam; *net.Dialer satisfies it, tests substitute
// their own.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober attempts TCP connections to candidate endpoints.
type Prober struct {
	Timeout     time.Duration
	Concurrency int
	Dialer      Dialer
}

// New returns a Prober with default timeout, concurrency cap, and the
// system dialer.
func New() *Prober {
	return &Prober{
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		Dialer:      &net.Dialer{},
	}
}

// Probe attempts one TCP connection to ep within the configured timeout.
// Any failure is recorded in the result, never returned as a fault. The
// connection, when established, is closed immediately: reachability is all
// we need from it.
func (p *Prober) Probe(ctx context.Context, ep endpoint.Endpoint) Result {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", ep.Addr())
	elapsed := time.Since(start)
	if err != nil {
		kind := classify(err)
		log.Debug().
			Str("endpoint", ep.String()).
			Str("kind", kind.String()).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("Probe failed")
		return Result{Endpoint: ep, Kind: kind, Err: err, Elapsed: elapsed}
	}
	_ = conn.Close()

	log.Debug().
		Str("endpoint", ep.String()).
		Dur("elapsed", elapsed).
		Msg("Probe succeeded")
	return Result{Endpoint: ep, Reachable: true, Elapsed: elapsed}
}

// All probes every endpoint with bounded concurrency and returns results
// in input order. Each worker writes its own pre-sized slot, so no result
// reordering can occur regardless of completion order.
func (p *Prober) All(ctx context.Context, eps []endpoint.Endpoint) []Result {
	results := make([]Result, len(eps))
	limit := p.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, ep := range eps {
		i, ep := i, ep
		g.Go(func() error {
			results[i] = p.Probe(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// First returns the first reachable endpoint in result order. The policy
// is deliberately not latency-based: identical inputs and server states
// always select the same endpoint.
func First(results []Result) (endpoint.Endpoint, bool) {
	for _, r := range results {
		if r.Reachable {
			return r.Endpoint, true
		}
	}
	return endpoint.Endpoint{}, false
}

// classify maps a dial error onto the small taxonomy callers care about.
func classify(err error) Kind {
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr):
		return KindDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindRefused
	case errors.Is(err, syscall.ECONNRESET):
		return KindReset
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return KindTimeout
		}
		return KindOther
	}
}
