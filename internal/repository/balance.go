package repository

import (
	"errors"
	"math/big"
	"strings"
	"sync"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// TokenLedger tracks per (player, token) balances and spend allowances for
// the simulated environment, mirroring what a balance-holding contract
// enforces: debits fail rather than go negative, credits always land.
//
// Each (player, token) pair serializes on its own lock; different pairs
// never contend.
type TokenLedger struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

type account struct {
	mu        sync.Mutex
	balance   *big.Int
	allowance *big.Int
}

func NewTokenLedger() *TokenLedger {
	return &TokenLedger{accounts: make(map[string]*account)}
}

func accountKey(player, token string) string {
	return strings.ToLower(player) + "|" + strings.ToLower(token)
}

func (l *TokenLedger) account(player, token string) *account {
	key := accountKey(player, token)

	l.mu.RLock()
	acc, ok := l.accounts[key]
	l.mu.RUnlock()

	if ok {
		return acc
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if acc, ok = l.accounts[key]; ok {
		return acc
	}

	acc = &account{balance: new(big.Int), allowance: new(big.Int)}
	l.accounts[key] = acc

	return acc
}

// Debit removes amount from the balance, failing with
// ErrInsufficientBalance and touching nothing when the funds are short.
func (l *TokenLedger) Debit(player, token string, amount *big.Int) error {
	acc := l.account(player, token)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	if acc.balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	acc.balance.Sub(acc.balance, amount)

	return nil
}

// Credit adds amount to the balance. Always succeeds.
func (l *TokenLedger) Credit(player, token string, amount *big.Int) {
	acc := l.account(player, token)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	acc.balance.Add(acc.balance, amount)
}

func (l *TokenLedger) BalanceOf(player, token string) *big.Int {
	acc := l.account(player, token)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	return new(big.Int).Set(acc.balance)
}

// Approve authorizes the game to spend up to amount of the player's token,
// replacing any previous allowance.
func (l *TokenLedger) Approve(player, token string, amount *big.Int) {
	acc := l.account(player, token)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	acc.allowance.Set(amount)
}

func (l *TokenLedger) Allowance(player, token string) *big.Int {
	acc := l.account(player, token)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	return new(big.Int).Set(acc.allowance)
}

// SpendAllowance consumes amount of the pre-authorized allowance, failing
// with ErrInsufficientAllowance and touching nothing when it is short.
func (l *TokenLedger) SpendAllowance(player, token string, amount *big.Int) error {
	acc := l.account(player, token)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	if acc.allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}

	acc.allowance.Sub(acc.allowance, amount)

	return nil
}
