package repository

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
)

// ErrIDSpaceExhausted is returned when the request id counter would wrap.
// Practically unreachable; Create is otherwise total.
var ErrIDSpaceExhausted = errors.New("request id space exhausted")

// BetLedger is an append-only in-memory store of bets keyed by request id.
// It is the concurrency linchpin of settlement: SettleOnce mutates each bet
// at most once no matter how many push and poll signals race for it.
//
// Mutations to different request ids proceed independently: the ledger-wide
// lock only guards the map, each record carries its own lock.
type BetLedger struct {
	mu     sync.RWMutex
	bets   map[uint64]*betRecord
	nextID uint64
}

type betRecord struct {
	mu  sync.Mutex
	bet model.Bet
}

func NewBetLedger() *BetLedger {
	return &BetLedger{
		bets:   make(map[uint64]*betRecord),
		nextID: 1,
	}
}

// Create assigns the next request id and stores the bet in Pending state.
// Ids are strictly increasing, also across Track calls, so a restored
// history can never collide with a fresh assignment.
func (l *BetLedger) Create(bet model.Bet) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.nextID == math.MaxUint64 {
		return 0, ErrIDSpaceExhausted
	}

	id := l.nextID
	l.nextID++

	bet.RequestID = id
	bet.Status = model.StatusPending
	bet.Outcome = nil
	if bet.CreatedAt.IsZero() {
		bet.CreatedAt = time.Now()
	}

	l.bets[id] = &betRecord{bet: bet}

	return id, nil
}

// Track stores a bet whose request id was assigned by an external
// authority, bumping the internal counter above it. Re-tracking a known id
// is a no-op.
func (l *BetLedger) Track(bet model.Bet) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.bets[bet.RequestID]; ok {
		return
	}

	if bet.RequestID >= l.nextID {
		l.nextID = bet.RequestID + 1
	}

	if bet.Outcome == nil {
		bet.Status = model.StatusPending
	}
	if bet.CreatedAt.IsZero() {
		bet.CreatedAt = time.Now()
	}

	l.bets[bet.RequestID] = &betRecord{bet: bet}
}

// Advance raises the id counter so future Create calls assign strictly
// above requestID. Used at startup to keep ids monotonic across restarts.
func (l *BetLedger) Advance(requestID uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if requestID >= l.nextID {
		l.nextID = requestID + 1
	}
}

func (l *BetLedger) Get(requestID uint64) (model.Bet, bool) {
	l.mu.RLock()
	rec, ok := l.bets[requestID]
	l.mu.RUnlock()

	if !ok {
		return model.Bet{}, false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.bet, true
}

// SettleOnce flips the bet to Settled with the computed outcome, exactly
// once. If the bet is absent or already settled it reports
// alreadySettled=true and mutates nothing; the stored outcome never changes
// after the first settlement. A compute error leaves the bet Pending so a
// later signal can retry.
func (l *BetLedger) SettleOnce(
	requestID uint64,
	compute func(model.Bet) (model.Outcome, error),
) (model.Bet, bool, error) {
	l.mu.RLock()
	rec, ok := l.bets[requestID]
	l.mu.RUnlock()

	if !ok {
		return model.Bet{}, true, nil
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.bet.Settled() {
		return rec.bet, true, nil
	}

	outcome, err := compute(rec.bet)
	if err != nil {
		return rec.bet, false, err
	}

	if outcome.SettledAt.IsZero() {
		outcome.SettledAt = time.Now()
	}

	rec.bet.Outcome = &outcome
	rec.bet.Status = model.StatusSettled

	return rec.bet, false, nil
}

// ListByPlayer returns the player's bets newest first. Settlement order is
// irrelevant to this ordering; only placement time counts.
func (l *BetLedger) ListByPlayer(player string) []model.Bet {
	l.mu.RLock()
	records := make([]*betRecord, 0, len(l.bets))
	for _, rec := range l.bets {
		records = append(records, rec)
	}
	l.mu.RUnlock()

	var bets []model.Bet
	for _, rec := range records {
		rec.mu.Lock()
		if rec.bet.Player == player {
			bets = append(bets, rec.bet)
		}
		rec.mu.Unlock()
	}

	sort.Slice(bets, func(i, j int) bool {
		if !bets[i].CreatedAt.Equal(bets[j].CreatedAt) {
			return bets[i].CreatedAt.After(bets[j].CreatedAt)
		}

		return bets[i].RequestID > bets[j].RequestID
	})

	return bets
}

// Pending returns the request ids still awaiting settlement.
func (l *BetLedger) Pending() []uint64 {
	l.mu.RLock()
	records := make(map[uint64]*betRecord, len(l.bets))
	for id, rec := range l.bets {
		records[id] = rec
	}
	l.mu.RUnlock()

	var ids []uint64
	for id, rec := range records {
		rec.mu.Lock()
		if !rec.bet.Settled() {
			ids = append(ids, id)
		}
		rec.mu.Unlock()
	}

	return ids
}
