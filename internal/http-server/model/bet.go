package model

import (
	"math/big"
	"time"

	"github.com/Shibun-a/OnChainGame/internal/config"
	"github.com/Shibun-a/OnChainGame/internal/game"
)

// NativeToken is the sentinel asset id for the chain's native coin.
const NativeToken = "0x0000000000000000000000000000000000000000"

type BetStatus string

const (
	StatusPending BetStatus = "pending"
	StatusSettled BetStatus = "settled"
)

type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultTie  Result = "tie"
)

// Bet is one wager, dice or poker, keyed by its request id. The id is
// assigned once and never reused; a bet is never deleted, only settled.
type Bet struct {
	RequestID uint64      `json:"request_id"`
	Game      config.Game `json:"game"`
	Player    string      `json:"player"`
	Token     string      `json:"token"`
	Amount    *big.Int    `json:"amount"`
	// Multiplier is the dice tier chosen at placement; poker bets carry
	// the fixed poker multiplier.
	Multiplier int       `json:"multiplier"`
	Status     BetStatus `json:"status"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Outcome is written exactly once, when the bet settles. Payout is in the
// same base units as the wager amount.
type Outcome struct {
	Roll        int           `json:"roll,omitempty"`
	PlayerCards [3]game.Card  `json:"player_cards,omitempty"`
	DealerCards [3]game.Card  `json:"dealer_cards,omitempty"`
	PlayerRank  game.HandRank `json:"player_rank,omitempty"`
	DealerRank  game.HandRank `json:"dealer_rank,omitempty"`
	Payout      *big.Int      `json:"payout"`
	Result      Result        `json:"result"`
	SettledAt   time.Time     `json:"settled_at"`
}

func (b *Bet) Settled() bool {
	return b.Status == StatusSettled
}
