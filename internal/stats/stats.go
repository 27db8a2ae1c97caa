// Package stats aggregates a player's betting record.
package stats

import (
	"math/big"

	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
)

type PlayerStats struct {
	TotalBets    int      `json:"total_bets"`
	Wins         int      `json:"wins"`
	Losses       int      `json:"losses"`
	Ties         int      `json:"ties"`
	TotalWagered *big.Int `json:"total_wagered"`
	TotalWon     *big.Int `json:"total_won"`
	NetProfit    *big.Int `json:"net_profit"`
	WinRate      float64  `json:"win_rate"`
}

// Compute folds a bet history into aggregate stats. Pending bets count
// toward the totals but not toward the win rate; ties sit outside the win
// rate as well, since a refund is neither a win nor a loss.
func Compute(bets []model.Bet) PlayerStats {
	s := PlayerStats{
		TotalWagered: big.NewInt(0),
		TotalWon:     big.NewInt(0),
		NetProfit:    big.NewInt(0),
	}

	for _, bet := range bets {
		s.TotalBets++
		s.TotalWagered.Add(s.TotalWagered, bet.Amount)

		if !bet.Settled() {
			continue
		}

		switch bet.Outcome.Result {
		case model.ResultWin:
			s.Wins++
		case model.ResultLoss:
			s.Losses++
		case model.ResultTie:
			s.Ties++
		}

		s.TotalWon.Add(s.TotalWon, bet.Outcome.Payout)
	}

	s.NetProfit.Sub(s.TotalWon, s.TotalWagered)

	if decided := s.Wins + s.Losses; decided > 0 {
		s.WinRate = float64(s.Wins) / float64(decided)
	}

	return s
}
