package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/chain"
)

type scriptedSettler struct {
	mu    sync.Mutex
	calls map[uint64]int
	// settleAfter is how many calls an id absorbs before reporting settled
	settleAfter map[uint64]int
	err         error
}

func newScriptedSettler() *scriptedSettler {
	return &scriptedSettler{
		calls:       make(map[uint64]int),
		settleAfter: make(map[uint64]int),
	}
}

func (s *scriptedSettler) OnSettlementSignal(_ context.Context, requestID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[requestID]++

	if s.err != nil {
		return false, s.err
	}

	return s.calls[requestID] > s.settleAfter[requestID], nil
}

func (s *scriptedSettler) callCount(requestID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[requestID]
}

type fakeSubscriber struct {
	mu      sync.Mutex
	handler chain.SettledHandler
}

func (f *fakeSubscriber) SubscribeSettled(handler chain.SettledHandler) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handler = handler

	return func() {}, nil
}

func (f *fakeSubscriber) push(requestID uint64) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()

	if handler != nil {
		handler(requestID)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("condition not met within timeout")
}

func TestPollResolvesTrackedBet(t *testing.T) {
	t.Parallel()

	settler := newScriptedSettler()
	settler.settleAfter[7] = 2

	a := New(discardLogger(), &fakeSubscriber{}, settler, 10*time.Millisecond, 0)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	a.Track(7)

	waitFor(t, time.Second, func() bool {
		return len(a.pending()) == 0
	})

	if got := settler.callCount(7); got < 3 {
		t.Errorf("expected at least 3 reconciliation passes, got %d", got)
	}
}

func TestPushSignalShortCircuitsPolling(t *testing.T) {
	t.Parallel()

	settler := newScriptedSettler()
	sub := &fakeSubscriber{}

	// poll far slower than the test runs, so only push can resolve in time
	a := New(discardLogger(), sub, settler, time.Hour, 0)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	a.Track(42)
	sub.push(42)

	waitFor(t, time.Second, func() bool {
		return len(a.pending()) == 0
	})

	if got := settler.callCount(42); got != 1 {
		t.Errorf("expected a single push-driven pass, got %d", got)
	}
}

func TestSignalForUntrackedIDIsIgnored(t *testing.T) {
	t.Parallel()

	settler := newScriptedSettler()
	sub := &fakeSubscriber{}

	a := New(discardLogger(), sub, settler, time.Hour, 0)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	sub.push(99)
	time.Sleep(50 * time.Millisecond)

	if got := settler.callCount(99); got != 0 {
		t.Errorf("untracked id reconciled %d times", got)
	}
}

func TestMaxAttemptsDropsStuckBet(t *testing.T) {
	t.Parallel()

	settler := newScriptedSettler()
	settler.err = errors.New("authority unreachable")

	a := New(discardLogger(), &fakeSubscriber{}, settler, 10*time.Millisecond, 3)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	a.Track(5)

	waitFor(t, time.Second, func() bool {
		return len(a.pending()) == 0
	})

	if got := settler.callCount(5); got != 3 {
		t.Errorf("expected exactly 3 attempts before giving up, got %d", got)
	}
}

func TestTrackIsIdempotent(t *testing.T) {
	t.Parallel()

	a := New(discardLogger(), &fakeSubscriber{}, newScriptedSettler(), time.Hour, 0)

	a.Track(1)
	a.Track(1)
	a.Track(2)

	if got := len(a.pending()); got != 2 {
		t.Errorf("pending set has %d ids, want 2", got)
	}
}

func TestStopTerminatesLoop(t *testing.T) {
	t.Parallel()

	a := New(discardLogger(), &fakeSubscriber{}, newScriptedSettler(), 10*time.Millisecond, 0)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
