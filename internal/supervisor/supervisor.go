// Package supervisor manages the lifecycle of the identity store connection.
// It owns connection establishment with capped exponential backoff and keeps
// a live health state that request handling consults without blocking.
package supervisor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/allisson/sessions/internal/config"
)

// State is the connection state of the identity store.
type State int32

const (
	// StateDisconnected means no usable store connection exists.
	StateDisconnected State = iota
	// StateConnecting means a connection attempt is in flight.
	StateConnecting
	// StateConnected means the last probe succeeded.
	StateConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Pinger checks that the identity store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Supervisor supervises the identity store connection in the background.
// Request paths read its state through State(); they never trigger connection
// attempts themselves.
type Supervisor struct {
	pinger      Pinger
	baseDelay   time.Duration
	maxAttempts int
	probeEvery  time.Duration
	state       atomic.Int32
}

// New creates a Supervisor for the given store handle.
func New(pinger Pinger, cfg *config.Config) *Supervisor {
	return &Supervisor{
		pinger:      pinger,
		baseDelay:   cfg.StoreConnectBaseDelay,
		maxAttempts: cfg.StoreConnectMaxAttempts,
		probeEvery:  cfg.StoreProbeInterval,
	}
}

// State returns the current connection state. Safe for concurrent use.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Available reports whether the store can be queried right now.
func (s *Supervisor) Available() bool {
	return s.State() == StateConnected
}

// Run drives the connection lifecycle until the context is canceled. It
// attempts to connect with doubling backoff up to the attempt cap, then
// settles in the disconnected state. While connected it probes the store
// periodically and falls back to the connect loop when a probe fails.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		if !s.connect(ctx) {
			// Attempts exhausted or context canceled. Stay disconnected;
			// a later probe cycle will not resurrect the connection on its
			// own, the process is expected to be restarted or the context
			// canceled.
			if ctx.Err() != nil {
				return
			}
			slog.Error("identity store unreachable, giving up until restart",
				"max_attempts", s.maxAttempts,
			)
			<-ctx.Done()
			return
		}

		if !s.probe(ctx) {
			if ctx.Err() != nil {
				return
			}
			// Probe failed, go back to connecting.
			continue
		}
		return
	}
}

// connect runs the backoff loop. It returns true once a ping succeeds and
// false when attempts are exhausted or the context ends.
func (s *Supervisor) connect(ctx context.Context) bool {
	s.state.Store(int32(StateConnecting))

	delay := s.baseDelay
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.pinger.PingContext(ctx)
		if err == nil {
			s.state.Store(int32(StateConnected))
			slog.Info("identity store connected", "attempt", attempt)
			return true
		}

		slog.Warn("identity store connection attempt failed",
			"attempt", attempt,
			"max_attempts", s.maxAttempts,
			"retry_in", delay,
			"error", err,
		)

		if attempt == s.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			s.state.Store(int32(StateDisconnected))
			return false
		case <-time.After(delay):
		}
		delay *= 2
	}

	s.state.Store(int32(StateDisconnected))
	return false
}

// probe watches a live connection. It returns false when a probe fails and
// true only when the context ends while still connected.
func (s *Supervisor) probe(ctx context.Context) bool {
	ticker := time.NewTicker(s.probeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return true
		case <-ticker.C:
			if err := s.pinger.PingContext(ctx); err != nil {
				slog.Warn("identity store probe failed", "error", err)
				s.state.Store(int32(StateConnecting))
				return false
			}
		}
	}
}
