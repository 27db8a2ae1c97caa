package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
)

type Message struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Data    map[string]interface{} `json:"data"`
}

// Notifier pushes a message toward connected UIs.
type Notifier interface {
	TriggerEvent(m Message) error
}

// Channels and event names carried over the push surface.
const (
	GameChannel        = "game-channel"
	BalanceChannel     = "balance-channel"
	AchievementChannel = "achievement-channel"

	BetSettledEvent        = "bet-settled-event"
	IncomeEvent            = "income-event"
	OutcomeEvent           = "outcome-event"
	AchievementMintedEvent = "achievement-minted-event"
)

// WSEvent triggers events over a dialed connection to the ws hub. The
// mutex serializes writers: the engine and the simulator push on the same
// connection and gorilla conns allow one writer at a time.
type WSEvent struct {
	log  *slog.Logger
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSEvent(log *slog.Logger, conn *websocket.Conn) *WSEvent {
	return &WSEvent{
		log:  log,
		conn: conn,
	}
}

func (p *WSEvent) TriggerEvent(m Message) error {
	const op = "handlers.event.TriggerEvent"

	msg, err := json.Marshal(m)
	if err != nil {
		p.log.Error("failed to marshal message", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err = p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		p.log.Error("failed to trigger event", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
