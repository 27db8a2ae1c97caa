// Package feed reconciles placed bets against the authoritative settlement
// state. It combines a push subscription with a periodic poll over the set
// of still-pending request ids, so a missed push never strands a bet.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/chain"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
)

// Settler applies one settlement signal. It reports true when the id is
// resolved and can be dropped from tracking; signals for the same id are
// safe to deliver any number of times.
type Settler interface {
	OnSettlementSignal(ctx context.Context, requestID uint64) (bool, error)
}

// Subscriber is the push side of the collaborator client.
type Subscriber interface {
	SubscribeSettled(handler chain.SettledHandler) (func(), error)
}

type Adapter struct {
	log          *slog.Logger
	subscriber   Subscriber
	settler      Settler
	pollInterval time.Duration
	maxAttempts  int

	mu       sync.Mutex
	tracking map[uint64]int

	signals     chan uint64
	done        chan struct{}
	unsubscribe func()
	wg          sync.WaitGroup
}

// New builds an adapter. maxAttempts caps how many failed reconciliation
// passes an id survives before it is dropped with a warning; zero means
// track forever.
func New(
	log *slog.Logger,
	subscriber Subscriber,
	settler Settler,
	pollInterval time.Duration,
	maxAttempts int,
) *Adapter {
	return &Adapter{
		log:          log,
		subscriber:   subscriber,
		settler:      settler,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		tracking:     make(map[uint64]int),
		signals:      make(chan uint64, 64),
		done:         make(chan struct{}),
	}
}

// Track adds a request id to the pending set. Tracking an id twice, or an
// id that has already settled, is harmless.
func (a *Adapter) Track(requestID uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.tracking[requestID]; !ok {
		a.tracking[requestID] = 0
	}
}

// Start subscribes to push signals and begins the poll loop.
func (a *Adapter) Start(ctx context.Context) error {
	const op = "feed.Start"

	unsubscribe, err := a.subscriber.SubscribeSettled(func(requestID uint64) {
		// never block the collaborator's notify path; a dropped signal
		// is picked up by the next poll pass
		select {
		case a.signals <- requestID:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.unsubscribe = unsubscribe

	a.wg.Add(1)
	go a.run(ctx)

	return nil
}

// Stop tears down the subscription and waits for the loop to exit.
func (a *Adapter) Stop() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}

	close(a.done)
	a.wg.Wait()
}

func (a *Adapter) run(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.done:
			return
		case <-ctx.Done():
			return
		case requestID := <-a.signals:
			a.reconcile(ctx, requestID)
		case <-ticker.C:
			for _, requestID := range a.pending() {
				a.reconcile(ctx, requestID)
			}
		}
	}
}

func (a *Adapter) pending() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]uint64, 0, len(a.tracking))
	for id := range a.tracking {
		ids = append(ids, id)
	}

	return ids
}

func (a *Adapter) reconcile(ctx context.Context, requestID uint64) {
	a.mu.Lock()
	_, tracked := a.tracking[requestID]
	a.mu.Unlock()

	if !tracked {
		return
	}

	settled, err := a.settler.OnSettlementSignal(ctx, requestID)
	if err != nil {
		a.log.Error("settlement reconciliation failed", sl.RequestID(requestID), sl.Err(err))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if settled {
		delete(a.tracking, requestID)

		return
	}

	a.tracking[requestID]++

	if a.maxAttempts > 0 && a.tracking[requestID] >= a.maxAttempts {
		a.log.Warn("giving up on unresolved bet",
			sl.RequestID(requestID),
			slog.Int("attempts", a.tracking[requestID]))
		delete(a.tracking, requestID)
	}
}
