package supervisor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/sessions/internal/config"
	apperrors "github.com/allisson/sessions/internal/errors"
)

// fakePinger scripts ping results. Once the script is exhausted the last
// result repeats.
type fakePinger struct {
	results []error
	calls   atomic.Int32
}

func (f *fakePinger) PingContext(_ context.Context) error {
	i := int(f.calls.Add(1)) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i]
}

func newTestConfig() *config.Config {
	return &config.Config{
		StoreConnectBaseDelay:   time.Millisecond,
		StoreConnectMaxAttempts: 3,
		StoreProbeInterval:      5 * time.Millisecond,
	}
}

func waitForState(t *testing.T, s *Supervisor, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.State() == want
	}, time.Second, time.Millisecond, "state never reached %s", want)
}

func TestSupervisorConnects(t *testing.T) {
	defer goleak.VerifyNone(t)

	pinger := &fakePinger{results: []error{nil}}
	s := New(pinger, newTestConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	waitForState(t, s, StateConnected)
	assert.True(t, s.Available())

	cancel()
	<-done
}

func TestSupervisorRetriesWithBackoff(t *testing.T) {
	defer goleak.VerifyNone(t)

	storeDown := apperrors.New("store down")
	pinger := &fakePinger{results: []error{storeDown, storeDown, nil}}
	s := New(pinger, newTestConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	waitForState(t, s, StateConnected)
	assert.Equal(t, int32(3), pinger.calls.Load())

	cancel()
	<-done
}

func TestSupervisorStaysDisconnectedAfterExhaustion(t *testing.T) {
	defer goleak.VerifyNone(t)

	storeDown := apperrors.New("store down")
	pinger := &fakePinger{results: []error{storeDown}}
	s := New(pinger, newTestConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	waitForState(t, s, StateDisconnected)
	assert.False(t, s.Available())

	// Exactly max attempts, no further tries after exhaustion.
	assert.Equal(t, int32(3), pinger.calls.Load())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), pinger.calls.Load())

	cancel()
	<-done
}

func TestSupervisorReconnectsAfterFailedProbe(t *testing.T) {
	defer goleak.VerifyNone(t)

	storeDown := apperrors.New("store down")
	pinger := &fakePinger{results: []error{nil, storeDown, nil}}
	s := New(pinger, newTestConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	waitForState(t, s, StateConnected)

	// Second ping (first probe) fails and triggers a reconnect, the third
	// ping restores the connection.
	require.Eventually(t, func() bool {
		return pinger.calls.Load() >= 3 && s.State() == StateConnected
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "unknown", State(99).String())
}
