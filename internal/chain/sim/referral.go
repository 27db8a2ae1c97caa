package sim

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/Shibun-a/OnChainGame/internal/chain"
)

// referralRewardDivisor: the referrer earns 1% of every wager placed by a
// referred player, accrued per asset.
const referralRewardDivisor = 100

type referralBook struct {
	mu        sync.Mutex
	referrers map[string]string
	rewards   map[string]map[string]*big.Int
}

func newReferralBook() *referralBook {
	return &referralBook{
		referrers: make(map[string]string),
		rewards:   make(map[string]map[string]*big.Int),
	}
}

func (b *referralBook) set(player, referrer string) error {
	if strings.EqualFold(player, referrer) {
		return chain.ErrSelfReferral
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := strings.ToLower(player)
	if _, ok := b.referrers[key]; ok {
		return chain.ErrReferrerAlreadySet
	}

	b.referrers[key] = referrer

	return nil
}

func (b *referralBook) referrer(player string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.referrers[strings.ToLower(player)]
}

func (b *referralBook) accrue(player, token string, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	referrer, ok := b.referrers[strings.ToLower(player)]
	if !ok {
		return
	}

	reward := new(big.Int).Quo(amount, big.NewInt(referralRewardDivisor))
	if reward.Sign() == 0 {
		return
	}

	key := strings.ToLower(referrer)
	if b.rewards[key] == nil {
		b.rewards[key] = make(map[string]*big.Int)
	}

	// token addresses accrue case-insensitively, like the ledger keys them
	tokenKey := strings.ToLower(token)
	current, ok := b.rewards[key][tokenKey]
	if !ok {
		current = new(big.Int)
		b.rewards[key][tokenKey] = current
	}

	current.Add(current, reward)
}

func (b *referralBook) rewardsOf(player string) map[string]*big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]*big.Int)
	for token, amount := range b.rewards[strings.ToLower(player)] {
		out[token] = new(big.Int).Set(amount)
	}

	return out
}

// claim empties the player's reward book, returning what was paid out.
func (b *referralBook) claim(player string) (map[string]*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := strings.ToLower(player)

	rewards := b.rewards[key]
	if len(rewards) == 0 {
		return nil, chain.ErrNoRewardsToClaim
	}

	delete(b.rewards, key)

	return rewards, nil
}

func (c *Client) SetReferrer(_ context.Context, player, referrer string) error {
	return c.refs.set(player, referrer)
}

func (c *Client) Referrer(_ context.Context, player string) (string, error) {
	return c.refs.referrer(player), nil
}

func (c *Client) ReferralRewards(_ context.Context, player string) (map[string]*big.Int, error) {
	return c.refs.rewardsOf(player), nil
}

// ClaimReferralRewards pays accrued rewards into the player's token
// balances.
func (c *Client) ClaimReferralRewards(_ context.Context, player string) error {
	rewards, err := c.refs.claim(player)
	if err != nil {
		return err
	}

	for token, amount := range rewards {
		c.tokens.Credit(player, token, amount)
	}

	return nil
}
