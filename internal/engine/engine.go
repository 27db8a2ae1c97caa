// Package engine orchestrates the bet lifecycle: validated placement,
// settlement-signal ingestion, exactly-once payout crediting, and the
// push notifications that follow an actual settlement.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/chain"
	"github.com/Shibun-a/OnChainGame/internal/config"
	"github.com/Shibun-a/OnChainGame/internal/game"
	"github.com/Shibun-a/OnChainGame/internal/http-server/handlers/event"
	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
	"github.com/Shibun-a/OnChainGame/internal/lib/converter"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
	"github.com/Shibun-a/OnChainGame/internal/repository"
)

var (
	ErrBetOutOfBounds   = errors.New("bet amount out of bounds")
	ErrPoolInsufficient = errors.New("reward pool cannot cover worst-case payout")
	ErrUnknownTier      = errors.New("unknown multiplier tier")
)

const configCacheKey = "game_config"

// Bankroll moves player funds. In simulation it is backed by the token
// ledger; against a real chain the wager moves with the transaction itself
// and Payout is a no-op.
type Bankroll interface {
	Reserve(player, token string, amount *big.Int) error
	Payout(player, token string, amount *big.Int)
	BalanceOf(player, token string) (*big.Int, error)
}

// Tracker is the reconciliation feed's intake: every placed bet is handed
// over for push/poll tracking until settled.
type Tracker interface {
	Track(requestID uint64)
}

// Archiver persists bets and outcomes for auditing. Optional; archive
// failures never block the money path.
type Archiver interface {
	SaveBet(bet model.Bet) error
	SaveOutcome(requestID uint64, outcome model.Outcome) error
	LoadByPlayer(player string) ([]model.Bet, error)
}

type Engine struct {
	log      *slog.Logger
	client   chain.Client
	ledger   *repository.BetLedger
	bankroll Bankroll
	notifier event.Notifier
	cache    *cache.Cache
	tracker  Tracker
	archive  Archiver
}

func New(
	log *slog.Logger,
	client chain.Client,
	ledger *repository.BetLedger,
	bankroll Bankroll,
	notifier event.Notifier,
) *Engine {
	return &Engine{
		log:      log,
		client:   client,
		ledger:   ledger,
		bankroll: bankroll,
		notifier: notifier,
		cache:    cache.New(30*time.Second, time.Minute),
	}
}

// SetTracker wires the feed adapter after both sides exist.
func (e *Engine) SetTracker(t Tracker) {
	e.tracker = t
}

func (e *Engine) SetArchive(a Archiver) {
	e.archive = a
}

// PlaceDiceBet validates and commits a dice wager, returning the request
// id assigned by the collaborator. All validation failures are synchronous
// and leave no partial state — the balance is untouched unless the wager
// was actually submitted.
func (e *Engine) PlaceDiceBet(
	ctx context.Context,
	player, token string,
	amount *big.Int,
	multiplier int,
) (uint64, error) {
	const op = "engine.PlaceDiceBet"

	if _, ok := game.DiceThreshold(multiplier); !ok {
		return 0, ErrUnknownTier
	}

	return e.placeBet(ctx, op, model.Bet{
		Game:       config.Dice,
		Player:     player,
		Token:      token,
		Amount:     amount,
		Multiplier: multiplier,
	})
}

// PlacePokerBet is the poker variant; the multiplier is fixed by the game.
func (e *Engine) PlacePokerBet(
	ctx context.Context,
	player, token string,
	amount *big.Int,
) (uint64, error) {
	const op = "engine.PlacePokerBet"

	return e.placeBet(ctx, op, model.Bet{
		Game:       config.Poker,
		Player:     player,
		Token:      token,
		Amount:     amount,
		Multiplier: game.PokerMultiplier,
	})
}

func (e *Engine) placeBet(ctx context.Context, op string, bet model.Bet) (uint64, error) {
	cfg, err := e.gameConfig(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if bet.Amount.Sign() <= 0 ||
		bet.Amount.Cmp(cfg.MinBet) < 0 ||
		bet.Amount.Cmp(cfg.MaxBet) > 0 {
		return 0, ErrBetOutOfBounds
	}

	// the pool must cover the worst case at placement time, not at payout
	worstCase := game.Payout(bet.Amount, bet.Multiplier, cfg.HouseEdgeBps)
	if worstCase.Cmp(cfg.RewardPool) > 0 {
		return 0, ErrPoolInsufficient
	}

	if err = e.bankroll.Reserve(bet.Player, bet.Token, bet.Amount); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	requestID, err := e.submit(ctx, bet)
	if err != nil {
		// the wager never reached the collaborator: hand the debit back
		e.bankroll.Payout(bet.Player, bet.Token, bet.Amount)

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	bet.RequestID = requestID
	bet.Status = model.StatusPending
	bet.CreatedAt = time.Now()
	e.ledger.Track(bet)

	if e.archive != nil {
		if err := e.archive.SaveBet(bet); err != nil {
			e.log.Error("failed to archive bet", sl.RequestID(requestID), sl.Err(err))
		}
	}

	if e.tracker != nil {
		e.tracker.Track(requestID)
	}

	e.log.Info("bet placed",
		sl.RequestID(requestID),
		slog.String("game", string(bet.Game)),
		slog.String("player", bet.Player),
		slog.String("amount", converter.ConvertAmountUnitsToString(bet.Amount)))

	e.emitBalanceEvent(event.OutcomeEvent, bet.Player, bet.Token, bet.Amount, bet.Game)

	return requestID, nil
}

func (e *Engine) submit(ctx context.Context, bet model.Bet) (uint64, error) {
	if bet.Game == config.Dice {
		return e.client.SubmitDiceWager(ctx, bet.Player, bet.Token, bet.Amount, bet.Multiplier)
	}

	return e.client.SubmitPokerWager(ctx, bet.Player, bet.Token, bet.Amount)
}

// OnSettlementSignal reconciles one request id against the authoritative
// outcome. It reports whether the id is resolved from the feed's point of
// view: true stops tracking, false keeps the id for the next poll cycle.
//
// The outcome is adopted verbatim from the collaborator — the authority
// already applied the house edge in force at placement, and this engine
// never recomputes payouts after the fact. The wasAlreadySettled gate in
// the ledger guarantees at most one balance credit per id no matter how
// push and poll interleave.
func (e *Engine) OnSettlementSignal(ctx context.Context, requestID uint64) (bool, error) {
	const op = "engine.OnSettlementSignal"

	authoritative, err := e.client.ReadOutcome(ctx, requestID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if authoritative == nil || !authoritative.Settled() {
		return false, nil
	}

	outcome := *authoritative.Outcome

	bet, alreadySettled, err := e.ledger.SettleOnce(requestID, func(model.Bet) (model.Outcome, error) {
		return outcome, nil
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if alreadySettled {
		return true, nil
	}

	if outcome.Payout.Sign() > 0 {
		e.bankroll.Payout(bet.Player, bet.Token, outcome.Payout)
		e.emitBalanceEvent(event.IncomeEvent, bet.Player, bet.Token, outcome.Payout, bet.Game)
	}

	if e.archive != nil {
		if err := e.archive.SaveOutcome(requestID, outcome); err != nil {
			e.log.Error("failed to archive outcome", sl.RequestID(requestID), sl.Err(err))
		}
	}

	e.log.Info("settlement applied",
		sl.RequestID(requestID),
		slog.String("result", string(outcome.Result)),
		slog.String("payout", converter.ConvertAmountUnitsToString(outcome.Payout)))

	e.emitSettledEvent(bet)

	return true, nil
}

// History returns the player's bets newest first. The in-memory mirror
// only reaches back to the last restart; when it has nothing for the
// player and an archive is wired, the archived history is served instead.
func (e *Engine) History(player string) []model.Bet {
	bets := e.ledger.ListByPlayer(player)
	if len(bets) > 0 || e.archive == nil {
		return bets
	}

	archived, err := e.archive.LoadByPlayer(player)
	if err != nil {
		e.log.Error("failed to load archived history", sl.Err(err))

		return bets
	}

	return archived
}

func (e *Engine) Balance(player, token string) (*big.Int, error) {
	return e.bankroll.BalanceOf(player, token)
}

// GameConfig exposes the cached collaborator configuration to handlers.
func (e *Engine) GameConfig(ctx context.Context) (chain.GameConfig, error) {
	return e.gameConfig(ctx)
}

func (e *Engine) gameConfig(ctx context.Context) (chain.GameConfig, error) {
	if cached, found := e.cache.Get(configCacheKey); found {
		return cached.(chain.GameConfig), nil
	}

	cfg, err := e.client.ReadConfig(ctx)
	if err != nil {
		return chain.GameConfig{}, err
	}

	e.cache.Set(configCacheKey, cfg, cache.DefaultExpiration)

	return cfg, nil
}

func (e *Engine) emitSettledEvent(bet model.Bet) {
	if e.notifier == nil {
		return
	}

	data := map[string]interface{}{
		"request_id": bet.RequestID,
		"game":       string(bet.Game),
		"player":     bet.Player,
		"result":     string(bet.Outcome.Result),
		"payout":     converter.ConvertAmountUnitsToString(bet.Outcome.Payout),
	}
	if bet.Game == config.Dice {
		data["roll"] = bet.Outcome.Roll
	} else {
		data["player_rank"] = bet.Outcome.PlayerRank.String()
		data["dealer_rank"] = bet.Outcome.DealerRank.String()
	}

	err := e.notifier.TriggerEvent(event.Message{
		Channel: event.GameChannel,
		Event:   event.BetSettledEvent,
		Data:    data,
	})
	if err != nil {
		e.log.Error("failed to emit settled event", sl.RequestID(bet.RequestID), sl.Err(err))
	}
}

func (e *Engine) emitBalanceEvent(
	name string,
	player, token string,
	amount *big.Int,
	g config.Game,
) {
	if e.notifier == nil {
		return
	}

	operation := config.Income
	if name == event.OutcomeEvent {
		operation = config.Outcome
	}

	err := e.notifier.TriggerEvent(event.Message{
		Channel: event.BalanceChannel,
		Event:   name,
		Data: map[string]interface{}{
			"player":         player,
			"token":          token,
			"amount":         converter.ConvertAmountUnitsToString(amount),
			"operation_type": string(operation),
			"module":         string(g),
		},
	})
	if err != nil {
		e.log.Error("failed to emit balance event", sl.Err(err))
	}
}
