package sim

import (
	"context"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/Shibun-a/OnChainGame/internal/chain"
	"github.com/Shibun-a/OnChainGame/internal/config"
	"github.com/Shibun-a/OnChainGame/internal/http-server/handlers/event"
	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
	"github.com/Shibun-a/OnChainGame/internal/lib/converter"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
)

const (
	AchFirstDice   = 1
	AchFirstPoker  = 2
	AchHighRoller  = 3
	AchLuckyStreak = 4
)

// luckyStreakLength is the consecutive-win count behind achievement 4.
const luckyStreakLength = 5

var achievementCatalog = []chain.Achievement{
	{ID: AchFirstDice, Name: "First Dice Roll", Description: "Place your first dice bet"},
	{ID: AchFirstPoker, Name: "Poker Player", Description: "Play your first poker hand"},
	{ID: AchHighRoller, Name: "High Roller", Description: "Place a bet of 1 ETH or more"},
	{ID: AchLuckyStreak, Name: "Lucky Streak", Description: "Win 5 bets in a row"},
}

// highRollerThreshold is one whole token in base units.
var highRollerThreshold, _ = converter.ConvertAmountStringToUnits("1")

type achievementBook struct {
	mu          sync.Mutex
	earned      map[string]map[int]uint64
	streaks     map[string]int
	nextTokenID uint64
}

func newAchievementBook() *achievementBook {
	return &achievementBook{
		earned:  make(map[string]map[int]uint64),
		streaks: make(map[string]int),
	}
}

func (b *achievementBook) onBetPlaced(c *Client, g config.Game, player string, amount *big.Int) {
	if g == config.Dice {
		b.grant(c, player, AchFirstDice)
	} else {
		b.grant(c, player, AchFirstPoker)
	}

	if amount.Cmp(highRollerThreshold) >= 0 {
		b.grant(c, player, AchHighRoller)
	}
}

func (b *achievementBook) onBetSettled(c *Client, bet model.Bet) {
	b.mu.Lock()

	key := strings.ToLower(bet.Player)
	if bet.Outcome.Result == model.ResultWin {
		b.streaks[key]++
	} else {
		b.streaks[key] = 0
	}
	streak := b.streaks[key]

	b.mu.Unlock()

	if streak >= luckyStreakLength {
		b.grant(c, bet.Player, AchLuckyStreak)
	}
}

func (b *achievementBook) grant(c *Client, player string, id int) {
	b.mu.Lock()

	key := strings.ToLower(player)
	if b.earned[key] == nil {
		b.earned[key] = make(map[int]uint64)
	}
	if _, ok := b.earned[key][id]; ok {
		b.mu.Unlock()

		return
	}

	b.nextTokenID++
	tokenID := b.nextTokenID
	b.earned[key][id] = tokenID

	b.mu.Unlock()

	c.emitAchievement(player, id, tokenID)
}

func (b *achievementBook) list(player string) []chain.Achievement {
	b.mu.Lock()
	defer b.mu.Unlock()

	earned := b.earned[strings.ToLower(player)]

	out := make([]chain.Achievement, 0, len(achievementCatalog))
	for _, a := range achievementCatalog {
		if tokenID, ok := earned[a.ID]; ok {
			a.Earned = true
			a.TokenID = tokenID
		}
		out = append(out, a)
	}

	return out
}

func (c *Client) Achievements(_ context.Context, player string) ([]chain.Achievement, error) {
	return c.achs.list(player), nil
}

// SetNotifier wires the push backend used for achievement events. Optional;
// without it achievements are only visible through reads.
func (c *Client) SetNotifier(n event.Notifier) {
	c.notifierMu.Lock()
	defer c.notifierMu.Unlock()

	c.notifier = n
}

func (c *Client) emitAchievement(player string, id int, tokenID uint64) {
	c.notifierMu.Lock()
	notifier := c.notifier
	c.notifierMu.Unlock()

	if notifier == nil {
		return
	}

	err := notifier.TriggerEvent(event.Message{
		Channel: event.AchievementChannel,
		Event:   event.AchievementMintedEvent,
		Data: map[string]interface{}{
			"player":         player,
			"achievement_id": id,
			"token_id":       strconv.FormatUint(tokenID, 10),
		},
	})
	if err != nil {
		c.log.Error("failed to emit achievement event", sl.Err(err))
	}
}
