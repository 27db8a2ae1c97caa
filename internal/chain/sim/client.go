// Package sim is the in-memory collaborator: it emulates the game contract
// end to end — wager intake, delayed randomness draw, settlement authority,
// referrals and achievements — so the whole platform runs without a chain.
package sim

import (
	"context"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/chain"
	"github.com/Shibun-a/OnChainGame/internal/config"
	"github.com/Shibun-a/OnChainGame/internal/game"
	"github.com/Shibun-a/OnChainGame/internal/http-server/handlers/event"
	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
	"github.com/Shibun-a/OnChainGame/internal/job"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
	"github.com/Shibun-a/OnChainGame/internal/lib/random"
	"github.com/Shibun-a/OnChainGame/internal/repository"
)

// MockERC20 is the simulator's single supported non-native asset.
const MockERC20 = "0x0000000000000000000000000000000000000001"

type Options struct {
	GameConfig chain.GameConfig
	MinDelay   time.Duration
	MaxDelay   time.Duration
	// StartRequestID is the archived id high-water mark; fresh ids are
	// assigned strictly above it.
	StartRequestID uint64
}

// Client holds the authoritative bet ledger. The engine keeps its own
// mirror; this one plays the contract's role, so outcomes read from here
// are the source of truth.
type Client struct {
	log    *slog.Logger
	opts   Options
	ledger *repository.BetLedger
	tokens *repository.TokenLedger
	jobs   job.Queue
	refs   *referralBook
	achs   *achievementBook

	rngMu sync.Mutex
	rng   *rand.Rand

	subsMu  sync.RWMutex
	subs    map[int]chain.SettledHandler
	nextSub int

	notifierMu sync.Mutex
	notifier   event.Notifier
}

func NewClient(
	log *slog.Logger,
	opts Options,
	tokens *repository.TokenLedger,
	jobs job.Queue,
) *Client {
	ledger := repository.NewBetLedger()
	ledger.Advance(opts.StartRequestID)

	return &Client{
		log:    log,
		opts:   opts,
		ledger: ledger,
		tokens: tokens,
		jobs:   jobs,
		refs:   newReferralBook(),
		achs:   newAchievementBook(),
		rng:    rand.New(rand.NewSource(random.NewSeed())),
		subs:   make(map[int]chain.SettledHandler),
	}
}

func (c *Client) SubmitDiceWager(
	_ context.Context,
	player, token string,
	amount *big.Int,
	multiplier int,
) (uint64, error) {
	requestID, err := c.ledger.Create(model.Bet{
		Game:       config.Dice,
		Player:     player,
		Token:      token,
		Amount:     amount,
		Multiplier: multiplier,
	})
	if err != nil {
		return 0, err
	}

	c.refs.accrue(player, token, amount)
	c.achs.onBetPlaced(c, config.Dice, player, amount)

	c.log.Info("dice wager accepted",
		sl.RequestID(requestID),
		slog.String("player", player),
		slog.Int("multiplier", multiplier))

	c.jobs.Dispatch(&resolveJob{client: c, requestID: requestID}, c.drawDelay())

	return requestID, nil
}

func (c *Client) SubmitPokerWager(
	_ context.Context,
	player, token string,
	amount *big.Int,
) (uint64, error) {
	requestID, err := c.ledger.Create(model.Bet{
		Game:       config.Poker,
		Player:     player,
		Token:      token,
		Amount:     amount,
		Multiplier: game.PokerMultiplier,
	})
	if err != nil {
		return 0, err
	}

	c.refs.accrue(player, token, amount)
	c.achs.onBetPlaced(c, config.Poker, player, amount)

	c.log.Info("poker wager accepted",
		sl.RequestID(requestID),
		slog.String("player", player))

	c.jobs.Dispatch(&resolveJob{client: c, requestID: requestID}, c.drawDelay())

	return requestID, nil
}

func (c *Client) ReadConfig(_ context.Context) (chain.GameConfig, error) {
	cfg := c.opts.GameConfig

	return chain.GameConfig{
		HouseEdgeBps: cfg.HouseEdgeBps,
		MinBet:       new(big.Int).Set(cfg.MinBet),
		MaxBet:       new(big.Int).Set(cfg.MaxBet),
		RewardPool:   new(big.Int).Set(cfg.RewardPool),
	}, nil
}

func (c *Client) ReadBalance(_ context.Context, player, token string) (*big.Int, error) {
	return c.tokens.BalanceOf(player, token), nil
}

func (c *Client) ReadOutcome(_ context.Context, requestID uint64) (*model.Bet, error) {
	bet, ok := c.ledger.Get(requestID)
	if !ok {
		return nil, nil
	}

	return &bet, nil
}

func (c *Client) SupportedTokens(_ context.Context) ([]chain.TokenInfo, error) {
	return []chain.TokenInfo{
		{Address: model.NativeToken, Symbol: "ETH", Decimals: 18, Native: true},
		{Address: MockERC20, Symbol: "MOCK", Decimals: 18, Native: false},
	}, nil
}

func (c *Client) SubscribeSettled(handler chain.SettledHandler) (func(), error) {
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = handler
	c.subsMu.Unlock()

	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}, nil
}

func (c *Client) drawDelay() time.Duration {
	spread := c.opts.MaxDelay - c.opts.MinDelay
	if spread <= 0 {
		return c.opts.MinDelay
	}

	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	return c.opts.MinDelay + time.Duration(c.rng.Int63n(int64(spread)))
}

type resolveJob struct {
	client    *Client
	requestID uint64
}

func (j *resolveJob) Execute() {
	j.client.resolve(j.requestID)
}

// resolve draws the randomness and settles the bet against the house edge
// in force at placement. SettleOnce makes a duplicate resolve job harmless.
func (c *Client) resolve(requestID uint64) {
	bet, already, err := c.ledger.SettleOnce(requestID, c.computeOutcome)
	if err != nil {
		c.log.Error("failed to settle bet", sl.RequestID(requestID), sl.Err(err))

		return
	}
	if already {
		return
	}

	c.achs.onBetSettled(c, bet)

	c.log.Info("bet settled",
		sl.RequestID(requestID),
		slog.String("result", string(bet.Outcome.Result)))

	c.subsMu.RLock()
	handlers := make([]chain.SettledHandler, 0, len(c.subs))
	for _, h := range c.subs {
		handlers = append(handlers, h)
	}
	c.subsMu.RUnlock()

	for _, h := range handlers {
		h(requestID)
	}
}

func (c *Client) computeOutcome(bet model.Bet) (model.Outcome, error) {
	edge := c.opts.GameConfig.HouseEdgeBps

	if bet.Game == config.Dice {
		roll := c.rollDice()

		outcome := model.Outcome{
			Roll:   roll,
			Payout: new(big.Int),
			Result: model.ResultLoss,
		}
		if game.DiceWin(roll, bet.Multiplier) {
			outcome.Payout = game.Payout(bet.Amount, bet.Multiplier, edge)
			outcome.Result = model.ResultWin
		}

		return outcome, nil
	}

	playerCards, dealerCards := c.dealHands()
	playerRank := game.EvaluateHand(playerCards)
	dealerRank := game.EvaluateHand(dealerCards)

	outcome := model.Outcome{
		PlayerCards: playerCards,
		DealerCards: dealerCards,
		PlayerRank:  playerRank,
		DealerRank:  dealerRank,
	}

	outcome.Result, outcome.Payout = pokerResult(playerRank, dealerRank, bet.Amount, edge)

	return outcome, nil
}

// pokerResult classifies a showdown and prices it. A tie refunds the wager
// exactly, never through the edge formula.
func pokerResult(playerRank, dealerRank game.HandRank, amount *big.Int, houseEdgeBps int) (model.Result, *big.Int) {
	switch {
	case playerRank > dealerRank:
		return model.ResultWin, game.Payout(amount, game.PokerMultiplier, houseEdgeBps)
	case playerRank < dealerRank:
		return model.ResultLoss, new(big.Int)
	default:
		return model.ResultTie, new(big.Int).Set(amount)
	}
}

func (c *Client) rollDice() int {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	return c.rng.Intn(game.DiceRollMax) + game.DiceRollMin
}

// dealHands draws six distinct cards from one deck: three for the player,
// three for the dealer.
func (c *Client) dealHands() ([3]game.Card, [3]game.Card) {
	c.rngMu.Lock()
	codes := c.rng.Perm(game.DeckSize)[:6]
	c.rngMu.Unlock()

	var player, dealer [3]game.Card
	for i := 0; i < 3; i++ {
		player[i] = game.Card(codes[i] + 1)
		dealer[i] = game.Card(codes[i+3] + 1)
	}

	return player, dealer
}
