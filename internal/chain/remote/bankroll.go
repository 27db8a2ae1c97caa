package remote

import (
	"context"
	"math/big"

	"github.com/Shibun-a/OnChainGame/internal/repository"
)

// Bankroll is the remote-mode funds adapter. Against a real contract the
// wager amount moves with the submitted transaction, so Reserve only
// verifies the balance covers the stake and Payout is a no-op: the gateway
// credits winnings on-chain.
type Bankroll struct {
	client *Client
}

func NewBankroll(client *Client) *Bankroll {
	return &Bankroll{client: client}
}

func (b *Bankroll) Reserve(player, token string, amount *big.Int) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	balance, err := b.client.ReadBalance(ctx, player, token)
	if err != nil {
		return err
	}

	if balance.Cmp(amount) < 0 {
		return repository.ErrInsufficientBalance
	}

	return nil
}

func (b *Bankroll) Payout(_, _ string, _ *big.Int) {}

func (b *Bankroll) BalanceOf(player, token string) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	return b.client.ReadBalance(ctx, player, token)
}
