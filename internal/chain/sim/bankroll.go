package sim

import (
	"math/big"
	"strings"
	"sync"

	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
	"github.com/Shibun-a/OnChainGame/internal/repository"
)

// Bankroll fronts the token ledger for the engine: it reserves wagers
// (honoring ERC20 allowances) and pays out winnings. New accounts are
// seeded with a starting balance on first touch so the demo environment is
// playable without a faucet.
type Bankroll struct {
	tokens   *repository.TokenLedger
	starting *big.Int

	mu     sync.Mutex
	funded map[string]bool
}

func NewBankroll(tokens *repository.TokenLedger, starting *big.Int) *Bankroll {
	return &Bankroll{
		tokens:   tokens,
		starting: starting,
		funded:   make(map[string]bool),
	}
}

// Reserve debits the wager. For non-native assets the pre-authorized
// allowance is consumed first; if the debit then fails the allowance is
// restored, so a rejected placement leaves no partial state.
func (b *Bankroll) Reserve(player, token string, amount *big.Int) error {
	b.fund(player, token)

	native := strings.EqualFold(token, model.NativeToken)

	if !native {
		if err := b.tokens.SpendAllowance(player, token, amount); err != nil {
			return err
		}
	}

	if err := b.tokens.Debit(player, token, amount); err != nil {
		if !native {
			current := b.tokens.Allowance(player, token)
			b.tokens.Approve(player, token, new(big.Int).Add(current, amount))
		}

		return err
	}

	return nil
}

func (b *Bankroll) Payout(player, token string, amount *big.Int) {
	b.tokens.Credit(player, token, amount)
}

func (b *Bankroll) BalanceOf(player, token string) (*big.Int, error) {
	b.fund(player, token)

	return b.tokens.BalanceOf(player, token), nil
}

func (b *Bankroll) Approve(player, token string, amount *big.Int) {
	b.tokens.Approve(player, token, amount)
}

func (b *Bankroll) fund(player, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := strings.ToLower(player) + "|" + strings.ToLower(token)
	if b.funded[key] {
		return
	}

	b.funded[key] = true
	b.tokens.Credit(player, token, b.starting)
}
