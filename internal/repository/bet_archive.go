package repository

import (
	"database/sql"
	"fmt"
	"math/big"

	"github.com/Shibun-a/OnChainGame/internal/config"
	"github.com/Shibun-a/OnChainGame/internal/game"
	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
	"github.com/Shibun-a/OnChainGame/internal/repository/mysql"
)

// BetArchive is the optional durability layer behind the in-memory ledger:
// an append-only table of bets for auditing and for restoring history (and
// the id high-water mark) across restarts. Amounts are stored as decimal
// strings to survive the 64-bit overflow of base units.
type BetArchive struct {
	dbhandler *mysql.Handler
}

func NewBetArchive(dbhandler *mysql.Handler) *BetArchive {
	return &BetArchive{dbhandler: dbhandler}
}

func (repo *BetArchive) SaveBet(bet model.Bet) error {
	const op = "repository.bet_archive.SaveBet"

	const query = "INSERT INTO bets(request_id, game, player, token, amount, multiplier, status, created_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := repo.dbhandler.PrepareAndExecute(query,
		bet.RequestID, string(bet.Game), bet.Player, bet.Token,
		bet.Amount.String(), bet.Multiplier, string(bet.Status), bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (repo *BetArchive) SaveOutcome(requestID uint64, outcome model.Outcome) error {
	const op = "repository.bet_archive.SaveOutcome"

	const query = "UPDATE bets SET status = ?, result = ?, payout = ?, roll = ?, " +
		"player_rank = ?, dealer_rank = ?, settled_at = ? WHERE request_id = ?"
	_, err := repo.dbhandler.PrepareAndExecute(query,
		string(model.StatusSettled), string(outcome.Result), outcome.Payout.String(),
		outcome.Roll, int(outcome.PlayerRank), int(outcome.DealerRank),
		outcome.SettledAt, requestID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MaxRequestID returns the highest archived id, so a fresh ledger can keep
// assigning above restored history.
func (repo *BetArchive) MaxRequestID() (uint64, error) {
	const op = "repository.bet_archive.MaxRequestID"

	const query = "SELECT COALESCE(MAX(request_id), 0) FROM bets"
	row, err := repo.dbhandler.PrepareAndQueryRow(query)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var max uint64
	if err = row.Scan(&max); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return max, nil
}

func (repo *BetArchive) LoadByPlayer(player string) ([]model.Bet, error) {
	const op = "repository.bet_archive.LoadByPlayer"

	const query = "SELECT request_id, game, player, token, amount, multiplier, status, " +
		"COALESCE(result, ''), COALESCE(payout, '0'), COALESCE(roll, 0), " +
		"COALESCE(player_rank, 0), COALESCE(dealer_rank, 0), created_at, settled_at " +
		"FROM bets WHERE player = ? ORDER BY created_at DESC, request_id DESC"
	rows, err := repo.dbhandler.PrepareAndQuery(query, player)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bets []model.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		bets = append(bets, bet)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bets, nil
}

func scanBet(rows *sql.Rows) (model.Bet, error) {
	var (
		bet                        model.Bet
		gameStr, statusStr, result string
		amountStr, payoutStr       string
		roll, pRank, dRank         int
		settledAt                  sql.NullTime
	)

	err := rows.Scan(&bet.RequestID, &gameStr, &bet.Player, &bet.Token, &amountStr,
		&bet.Multiplier, &statusStr, &result, &payoutStr, &roll, &pRank, &dRank,
		&bet.CreatedAt, &settledAt)
	if err != nil {
		return model.Bet{}, err
	}

	bet.Game = config.Game(gameStr)
	bet.Status = model.BetStatus(statusStr)

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return model.Bet{}, fmt.Errorf("invalid archived amount %q", amountStr)
	}
	bet.Amount = amount

	if bet.Status == model.StatusSettled {
		payout, ok := new(big.Int).SetString(payoutStr, 10)
		if !ok {
			return model.Bet{}, fmt.Errorf("invalid archived payout %q", payoutStr)
		}

		outcome := model.Outcome{
			Roll:       roll,
			PlayerRank: game.HandRank(pRank),
			DealerRank: game.HandRank(dRank),
			Payout:     payout,
			Result:     model.Result(result),
		}
		if settledAt.Valid {
			outcome.SettledAt = settledAt.Time
		}

		bet.Outcome = &outcome
	}

	return bet, nil
}
