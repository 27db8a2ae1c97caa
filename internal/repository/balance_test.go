package repository

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
)

const player = "0xAbC0000000000000000000000000000000000001"

func TestTokenLedgerDebitCredit(t *testing.T) {
	ledger := NewTokenLedger()

	ledger.Credit(player, model.NativeToken, big.NewInt(1000))

	if err := ledger.Debit(player, model.NativeToken, big.NewInt(400)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ledger.BalanceOf(player, model.NativeToken); got.Cmp(big.NewInt(600)) != 0 {
		t.Errorf("balance: want 600, got %s", got)
	}

	err := ledger.Debit(player, model.NativeToken, big.NewInt(601))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance, got %v", err)
	}

	// failed debit must not move funds
	if got := ledger.BalanceOf(player, model.NativeToken); got.Cmp(big.NewInt(600)) != 0 {
		t.Errorf("balance changed by failed debit: %s", got)
	}
}

func TestTokenLedgerKeysAreCaseInsensitive(t *testing.T) {
	ledger := NewTokenLedger()

	ledger.Credit("0xABCD", model.NativeToken, big.NewInt(5))

	if got := ledger.BalanceOf("0xabcd", model.NativeToken); got.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("case-variant lookup missed balance: %s", got)
	}
}

func TestTokenLedgerAllowance(t *testing.T) {
	const token = "0x0000000000000000000000000000000000000001"

	ledger := NewTokenLedger()
	ledger.Approve(player, token, big.NewInt(100))

	if err := ledger.SpendAllowance(player, token, big.NewInt(60)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ledger.SpendAllowance(player, token, big.NewInt(41))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("want ErrInsufficientAllowance, got %v", err)
	}

	if got := ledger.Allowance(player, token); got.Cmp(big.NewInt(40)) != 0 {
		t.Errorf("allowance: want 40, got %s", got)
	}
}

func TestTokenLedgerConcurrentCredits(t *testing.T) {
	ledger := NewTokenLedger()

	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger.Credit(player, model.NativeToken, big.NewInt(1))
		}()
	}
	wg.Wait()

	if got := ledger.BalanceOf(player, model.NativeToken); got.Cmp(big.NewInt(workers)) != 0 {
		t.Errorf("balance: want %d, got %s", workers, got)
	}
}
