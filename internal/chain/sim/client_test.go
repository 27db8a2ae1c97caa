package sim

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/chain"
	"github.com/Shibun-a/OnChainGame/internal/game"
	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
	"github.com/Shibun-a/OnChainGame/internal/job"
	"github.com/Shibun-a/OnChainGame/internal/repository"
)

const (
	playerA  = "0xAaAa000000000000000000000000000000000001"
	playerB  = "0xBbBb000000000000000000000000000000000002"
	referrer = "0xCcCc000000000000000000000000000000000003"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	log := slog.New(slog.NewTextHandler(discardWriter{}, nil))
	queue := job.NewQueue(16)
	job.NewWorkerPool(2, queue).Start()

	minBet, _ := new(big.Int).SetString("1000000000000000", 10)
	maxBet, _ := new(big.Int).SetString("1000000000000000000", 10)
	pool, _ := new(big.Int).SetString("100000000000000000000", 10)

	return NewClient(log, Options{
		GameConfig: chain.GameConfig{
			HouseEdgeBps: 200,
			MinBet:       minBet,
			MaxBet:       maxBet,
			RewardPool:   pool,
		},
		MinDelay: time.Millisecond,
		MaxDelay: 2 * time.Millisecond,
	}, repository.NewTokenLedger(), queue)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func waitSettled(t *testing.T, c *Client, requestID uint64) model.Bet {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		bet, err := c.ReadOutcome(context.Background(), requestID)
		if err != nil {
			t.Fatalf("read outcome: %v", err)
		}
		if bet != nil && bet.Settled() {
			return *bet
		}
		time.Sleep(2 * time.Millisecond)
	}

	t.Fatalf("bet %d never settled", requestID)

	return model.Bet{}
}

func stake() *big.Int {
	v, _ := new(big.Int).SetString("100000000000000000", 10)

	return v
}

func TestSubmitDiceWager_SettlesWithConsistentOutcome(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	id, err := c.SubmitDiceWager(context.Background(), playerA, model.NativeToken, stake(), 5)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id == 0 {
		t.Fatal("request id must start at 1")
	}

	bet := waitSettled(t, c, id)

	if bet.Outcome.Roll < 1 || bet.Outcome.Roll > 100 {
		t.Errorf("roll %d outside [1,100]", bet.Outcome.Roll)
	}

	won := bet.Outcome.Roll > 80
	if won != (bet.Outcome.Result == model.ResultWin) {
		t.Errorf("roll %d inconsistent with result %s at 5x", bet.Outcome.Roll, bet.Outcome.Result)
	}

	if won {
		// 0.1 * 5 * 0.98 = 0.49 token
		want, _ := new(big.Int).SetString("490000000000000000", 10)
		if bet.Outcome.Payout.Cmp(want) != 0 {
			t.Errorf("payout %s, want %s", bet.Outcome.Payout, want)
		}
	} else if bet.Outcome.Payout.Sign() != 0 {
		t.Errorf("losing payout %s, want 0", bet.Outcome.Payout)
	}
}

func TestSubmitPokerWager_DealsDistinctCards(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	id, err := c.SubmitPokerWager(context.Background(), playerA, model.NativeToken, stake())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	bet := waitSettled(t, c, id)

	seen := make(map[int]bool)
	for _, card := range bet.Outcome.PlayerCards {
		seen[int(card)] = true
	}
	for _, card := range bet.Outcome.DealerCards {
		seen[int(card)] = true
	}
	if len(seen) != 6 {
		t.Errorf("hands share cards: player %v dealer %v", bet.Outcome.PlayerCards, bet.Outcome.DealerCards)
	}
	for code := range seen {
		if code < 1 || code > 52 {
			t.Errorf("card code %d outside deck", code)
		}
	}

	if bet.Outcome.Result == model.ResultTie && bet.Outcome.Payout.Cmp(bet.Amount) != 0 {
		t.Errorf("tie payout %s must refund stake %s exactly", bet.Outcome.Payout, bet.Amount)
	}
}

func TestPokerResult(t *testing.T) {
	t.Parallel()

	// 0.1 * 2 * 0.98 = 0.196 token
	winPayout, _ := new(big.Int).SetString("196000000000000000", 10)

	cases := []struct {
		name       string
		playerRank game.HandRank
		dealerRank game.HandRank
		result     model.Result
		payout     *big.Int
	}{
		{
			name:       "pair beats high card",
			playerRank: game.Pair,
			dealerRank: game.HighCard,
			result:     model.ResultWin,
			payout:     winPayout,
		},
		{
			name:       "straight flush beats three of a kind",
			playerRank: game.StraightFlush,
			dealerRank: game.ThreeOfAKind,
			result:     model.ResultWin,
			payout:     winPayout,
		},
		{
			name:       "high card loses to pair",
			playerRank: game.HighCard,
			dealerRank: game.Pair,
			result:     model.ResultLoss,
			payout:     big.NewInt(0),
		},
		{
			name:       "equal ranks refund the stake exactly",
			playerRank: game.Pair,
			dealerRank: game.Pair,
			result:     model.ResultTie,
			payout:     stake(),
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result, payout := pokerResult(tc.playerRank, tc.dealerRank, stake(), 200)
			if result != tc.result {
				t.Errorf("result %s, want %s", result, tc.result)
			}
			if payout.Cmp(tc.payout) != 0 {
				t.Errorf("payout %s, want %s", payout, tc.payout)
			}
		})
	}
}

func TestRequestIDsAreMonotonic(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	var last uint64
	for i := 0; i < 10; i++ {
		id, err := c.SubmitDiceWager(context.Background(), playerA, model.NativeToken, stake(), 2)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if id <= last {
			t.Fatalf("request id %d not above previous %d", id, last)
		}
		last = id
	}
}

func TestSubscribeSettled_NotifiesAndUnsubscribes(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	signals := make(chan uint64, 8)
	unsubscribe, err := c.SubscribeSettled(func(requestID uint64) {
		signals <- requestID
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	id, err := c.SubmitDiceWager(context.Background(), playerA, model.NativeToken, stake(), 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case got := <-signals:
		if got != id {
			t.Errorf("signal for %d, want %d", got, id)
		}
	case <-time.After(time.Second):
		t.Fatal("no settlement signal delivered")
	}

	unsubscribe()

	id2, err := c.SubmitDiceWager(context.Background(), playerA, model.NativeToken, stake(), 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitSettled(t, c, id2)

	select {
	case got := <-signals:
		t.Errorf("unsubscribed handler received signal for %d", got)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestReadOutcome_UnknownID(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	bet, err := c.ReadOutcome(context.Background(), 12345)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bet != nil {
		t.Errorf("unknown id returned %+v", bet)
	}
}

func TestReferralFlow(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	if err := c.SetReferrer(ctx, playerA, playerA); !errors.Is(err, chain.ErrSelfReferral) {
		t.Errorf("self referral: got %v", err)
	}

	if err := c.SetReferrer(ctx, playerA, referrer); err != nil {
		t.Fatalf("set referrer: %v", err)
	}
	if err := c.SetReferrer(ctx, playerA, playerB); !errors.Is(err, chain.ErrReferrerAlreadySet) {
		t.Errorf("second referrer: got %v", err)
	}

	// 1% of a 0.1 token wager accrues to the referrer
	if _, err := c.SubmitDiceWager(ctx, playerA, model.NativeToken, stake(), 2); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rewards, err := c.ReferralRewards(ctx, referrer)
	if err != nil {
		t.Fatalf("rewards: %v", err)
	}
	want, _ := new(big.Int).SetString("1000000000000000", 10)
	if got := rewards[model.NativeToken]; got == nil || got.Cmp(want) != 0 {
		t.Fatalf("accrued %v, want %s", got, want)
	}

	if err := c.ClaimReferralRewards(ctx, referrer); err != nil {
		t.Fatalf("claim: %v", err)
	}

	balance, _ := c.ReadBalance(ctx, referrer, model.NativeToken)
	if balance.Cmp(want) != 0 {
		t.Errorf("claimed balance %s, want %s", balance, want)
	}

	if err := c.ClaimReferralRewards(ctx, referrer); !errors.Is(err, chain.ErrNoRewardsToClaim) {
		t.Errorf("second claim: got %v", err)
	}
}

func TestReferralRewards_TokenKeyCaseInsensitive(t *testing.T) {
	t.Parallel()

	book := newReferralBook()
	if err := book.set(playerA, referrer); err != nil {
		t.Fatalf("set referrer: %v", err)
	}

	token := "0xAbCd000000000000000000000000000000000009"
	book.accrue(playerA, token, stake())
	book.accrue(playerA, strings.ToLower(token), stake())

	rewards := book.rewardsOf(referrer)
	if len(rewards) != 1 {
		t.Fatalf("case-variant token addresses split rewards: %v", rewards)
	}

	// two accruals of 1% of 0.1 token each
	want, _ := new(big.Int).SetString("2000000000000000", 10)
	if got := rewards[strings.ToLower(token)]; got == nil || got.Cmp(want) != 0 {
		t.Errorf("accrued %v, want %s", got, want)
	}
}

func TestAchievements_FirstBets(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.SubmitDiceWager(ctx, playerA, model.NativeToken, stake(), 2); err != nil {
		t.Fatalf("submit dice: %v", err)
	}
	if _, err := c.SubmitPokerWager(ctx, playerA, model.NativeToken, stake()); err != nil {
		t.Fatalf("submit poker: %v", err)
	}

	achievements, err := c.Achievements(ctx, playerA)
	if err != nil {
		t.Fatalf("achievements: %v", err)
	}

	earned := make(map[int]bool)
	for _, a := range achievements {
		if a.Earned {
			earned[a.ID] = true
		}
	}

	if !earned[AchFirstDice] || !earned[AchFirstPoker] {
		t.Errorf("first-bet achievements missing: %v", earned)
	}
	if earned[AchHighRoller] {
		t.Error("high roller granted below the one-token threshold")
	}
}

func TestAchievements_HighRoller(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx := context.Background()

	oneToken, _ := new(big.Int).SetString("1000000000000000000", 10)
	if _, err := c.SubmitDiceWager(ctx, playerB, model.NativeToken, oneToken, 2); err != nil {
		t.Fatalf("submit: %v", err)
	}

	achievements, err := c.Achievements(ctx, playerB)
	if err != nil {
		t.Fatalf("achievements: %v", err)
	}

	for _, a := range achievements {
		if a.ID == AchHighRoller && !a.Earned {
			t.Error("one-token wager must grant high roller")
		}
	}
}
