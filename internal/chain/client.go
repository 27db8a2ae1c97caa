// Package chain defines the capability boundary between the betting core
// and the balance-holding game contract. The core consumes exactly this
// surface; whether it is backed by the in-memory simulator or a deployed
// contract gateway is a wiring decision made once, in main.
package chain

import (
	"context"
	"errors"
	"math/big"

	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
)

var (
	ErrSelfReferral       = errors.New("cannot refer yourself")
	ErrReferrerAlreadySet = errors.New("referrer already set")
	ErrNoRewardsToClaim   = errors.New("no rewards to claim")
)

// GameConfig is the house configuration in force at read time. The engine
// snapshots it at placement; payouts are never recomputed against a later
// edge.
type GameConfig struct {
	HouseEdgeBps int
	MinBet       *big.Int
	MaxBet       *big.Int
	RewardPool   *big.Int
}

type TokenInfo struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Native   bool   `json:"native"`
}

type Achievement struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
	TokenID     uint64 `json:"token_id,omitempty"`
}

// SettledHandler receives request ids whose authoritative outcome has
// become available. Delivery may duplicate or race the poll channel.
type SettledHandler func(requestID uint64)

// Client is the collaborator every engine instance depends on.
//
// ReadOutcome is the authoritative settlement state: it returns nil for an
// unknown id and a Pending bet for one not yet resolved — neither is an
// error.
type Client interface {
	SubmitDiceWager(ctx context.Context, player, token string, amount *big.Int, multiplier int) (uint64, error)
	SubmitPokerWager(ctx context.Context, player, token string, amount *big.Int) (uint64, error)

	ReadConfig(ctx context.Context) (GameConfig, error)
	ReadBalance(ctx context.Context, player, token string) (*big.Int, error)
	ReadOutcome(ctx context.Context, requestID uint64) (*model.Bet, error)
	SupportedTokens(ctx context.Context) ([]TokenInfo, error)

	// SubscribeSettled registers a push handler and returns its
	// unsubscribe function.
	SubscribeSettled(handler SettledHandler) (func(), error)

	SetReferrer(ctx context.Context, player, referrer string) error
	Referrer(ctx context.Context, player string) (string, error)
	ReferralRewards(ctx context.Context, player string) (map[string]*big.Int, error)
	ClaimReferralRewards(ctx context.Context, player string) error

	Achievements(ctx context.Context, player string) ([]Achievement, error)
}
