package stats

import (
	"math/big"
	"testing"

	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
)

func settledBet(amount, payout int64, result model.Result) model.Bet {
	return model.Bet{
		Amount: big.NewInt(amount),
		Status: model.StatusSettled,
		Outcome: &model.Outcome{
			Payout: big.NewInt(payout),
			Result: result,
		},
	}
}

func TestCompute(t *testing.T) {
	t.Parallel()

	bets := []model.Bet{
		settledBet(100, 490, model.ResultWin),
		settledBet(100, 0, model.ResultLoss),
		settledBet(100, 0, model.ResultLoss),
		settledBet(50, 50, model.ResultTie),
		{Amount: big.NewInt(25), Status: model.StatusPending},
	}

	s := Compute(bets)

	if s.TotalBets != 5 {
		t.Errorf("TotalBets = %d, want 5", s.TotalBets)
	}
	if s.Wins != 1 || s.Losses != 2 || s.Ties != 1 {
		t.Errorf("wins/losses/ties = %d/%d/%d, want 1/2/1", s.Wins, s.Losses, s.Ties)
	}
	if s.TotalWagered.Cmp(big.NewInt(375)) != 0 {
		t.Errorf("TotalWagered = %s, want 375", s.TotalWagered)
	}
	if s.TotalWon.Cmp(big.NewInt(540)) != 0 {
		t.Errorf("TotalWon = %s, want 540", s.TotalWon)
	}
	if s.NetProfit.Cmp(big.NewInt(165)) != 0 {
		t.Errorf("NetProfit = %s, want 165", s.NetProfit)
	}

	// a tie and a pending bet stay out of the win rate
	if want := 1.0 / 3.0; s.WinRate != want {
		t.Errorf("WinRate = %f, want %f", s.WinRate, want)
	}
}

func TestComputeEmptyHistory(t *testing.T) {
	t.Parallel()

	s := Compute(nil)

	if s.TotalBets != 0 || s.WinRate != 0 {
		t.Errorf("unexpected stats for empty history: %+v", s)
	}
	if s.TotalWagered.Sign() != 0 || s.NetProfit.Sign() != 0 {
		t.Errorf("non-zero amounts for empty history: %+v", s)
	}
}
