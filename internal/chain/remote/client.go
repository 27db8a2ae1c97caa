// Package remote implements the collaborator client against a deployed
// contract gateway: JSON over HTTP for reads and submissions, a websocket
// stream for settlement push signals.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/chain"
	"github.com/Shibun-a/OnChainGame/internal/config"
	"github.com/Shibun-a/OnChainGame/internal/game"
	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
)

const requestTimeout = 10 * time.Second

type Client struct {
	log     *slog.Logger
	baseURL string
	wsURL   string
	http    *http.Client

	subsMu  sync.Mutex
	subs    map[int]chain.SettledHandler
	nextSub int

	connOnce sync.Once
	connErr  error
	closed   chan struct{}
}

func New(log *slog.Logger, baseURL, wsURL string) *Client {
	return &Client{
		log:     log,
		baseURL: baseURL,
		wsURL:   wsURL,
		http:    &http.Client{Timeout: requestTimeout},
		subs:    make(map[int]chain.SettledHandler),
		closed:  make(chan struct{}),
	}
}

type wagerRequest struct {
	Player     string `json:"player"`
	Token      string `json:"token"`
	Amount     string `json:"amount"`
	Multiplier int    `json:"multiplier,omitempty"`
}

type wagerResponse struct {
	RequestID uint64 `json:"request_id"`
}

func (c *Client) SubmitDiceWager(
	ctx context.Context,
	player, token string,
	amount *big.Int,
	multiplier int,
) (uint64, error) {
	const op = "remote.SubmitDiceWager"

	var resp wagerResponse
	err := c.post(ctx, "/v1/wagers/dice", wagerRequest{
		Player:     player,
		Token:      token,
		Amount:     amount.String(),
		Multiplier: multiplier,
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return resp.RequestID, nil
}

func (c *Client) SubmitPokerWager(
	ctx context.Context,
	player, token string,
	amount *big.Int,
) (uint64, error) {
	const op = "remote.SubmitPokerWager"

	var resp wagerResponse
	err := c.post(ctx, "/v1/wagers/poker", wagerRequest{
		Player: player,
		Token:  token,
		Amount: amount.String(),
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return resp.RequestID, nil
}

type configResponse struct {
	HouseEdgeBps int    `json:"house_edge_bps"`
	MinBet       string `json:"min_bet"`
	MaxBet       string `json:"max_bet"`
	RewardPool   string `json:"reward_pool"`
}

func (c *Client) ReadConfig(ctx context.Context) (chain.GameConfig, error) {
	const op = "remote.ReadConfig"

	var resp configResponse
	if err := c.get(ctx, "/v1/config", &resp); err != nil {
		return chain.GameConfig{}, fmt.Errorf("%s: %w", op, err)
	}

	cfg := chain.GameConfig{HouseEdgeBps: resp.HouseEdgeBps}

	var err error
	if cfg.MinBet, err = parseUnits(resp.MinBet); err != nil {
		return chain.GameConfig{}, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.MaxBet, err = parseUnits(resp.MaxBet); err != nil {
		return chain.GameConfig{}, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.RewardPool, err = parseUnits(resp.RewardPool); err != nil {
		return chain.GameConfig{}, fmt.Errorf("%s: %w", op, err)
	}

	return cfg, nil
}

func (c *Client) ReadBalance(ctx context.Context, player, token string) (*big.Int, error) {
	const op = "remote.ReadBalance"

	var resp struct {
		Balance string `json:"balance"`
	}
	err := c.get(ctx, fmt.Sprintf("/v1/balances/%s/%s", player, token), &resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	balance, err := parseUnits(resp.Balance)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}

type outcomeResponse struct {
	RequestID  uint64 `json:"request_id"`
	Game       string `json:"game"`
	Player     string `json:"player"`
	Token      string `json:"token"`
	Amount     string `json:"amount"`
	Multiplier int    `json:"multiplier"`
	Settled    bool   `json:"settled"`

	Roll        int    `json:"roll,omitempty"`
	PlayerCards []int  `json:"player_cards,omitempty"`
	DealerCards []int  `json:"dealer_cards,omitempty"`
	Payout      string `json:"payout,omitempty"`
	Result      string `json:"result,omitempty"`
	SettledAt   int64  `json:"settled_at,omitempty"`
}

func (c *Client) ReadOutcome(ctx context.Context, requestID uint64) (*model.Bet, error) {
	const op = "remote.ReadOutcome"

	var resp outcomeResponse
	err := c.get(ctx, fmt.Sprintf("/v1/wagers/%d", requestID), &resp)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bet, err := resp.toBet()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bet, nil
}

func (r outcomeResponse) toBet() (*model.Bet, error) {
	amount, err := parseUnits(r.Amount)
	if err != nil {
		return nil, err
	}

	bet := &model.Bet{
		RequestID:  r.RequestID,
		Game:       config.Game(r.Game),
		Player:     r.Player,
		Token:      r.Token,
		Amount:     amount,
		Multiplier: r.Multiplier,
		Status:     model.StatusPending,
	}

	if !r.Settled {
		return bet, nil
	}

	payout, err := parseUnits(r.Payout)
	if err != nil {
		return nil, err
	}

	outcome := model.Outcome{
		Roll:      r.Roll,
		Payout:    payout,
		Result:    model.Result(r.Result),
		SettledAt: time.Unix(r.SettledAt, 0),
	}

	if len(r.PlayerCards) == 3 && len(r.DealerCards) == 3 {
		for i := 0; i < 3; i++ {
			outcome.PlayerCards[i] = game.Card(r.PlayerCards[i])
			outcome.DealerCards[i] = game.Card(r.DealerCards[i])
		}
		outcome.PlayerRank = game.EvaluateHand(outcome.PlayerCards)
		outcome.DealerRank = game.EvaluateHand(outcome.DealerCards)
	}

	bet.Status = model.StatusSettled
	bet.Outcome = &outcome

	return bet, nil
}

func (c *Client) SupportedTokens(ctx context.Context) ([]chain.TokenInfo, error) {
	const op = "remote.SupportedTokens"

	var resp struct {
		Tokens []chain.TokenInfo `json:"tokens"`
	}
	if err := c.get(ctx, "/v1/tokens", &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resp.Tokens, nil
}

// SubscribeSettled dials the gateway's settlement stream on first use and
// fans every signal out to all registered handlers.
func (c *Client) SubscribeSettled(handler chain.SettledHandler) (func(), error) {
	const op = "remote.SubscribeSettled"

	c.connOnce.Do(func() {
		c.connErr = c.startStream()
	})
	if c.connErr != nil {
		return nil, fmt.Errorf("%s: %w", op, c.connErr)
	}

	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	c.nextSub++
	id := c.nextSub
	c.subs[id] = handler

	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()

		delete(c.subs, id)
	}, nil
}

func (c *Client) startStream() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.wsURL, nil)
	if err != nil {
		return err
	}

	go c.readStream(conn)

	return nil
}

func (c *Client) readStream(conn *websocket.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			c.log.Error("failed to close settlement stream", sl.Err(err))
		}
	}()

	for {
		select {
		case <-c.closed:
			return
		default:
		}

		var signal struct {
			RequestID uint64 `json:"request_id"`
		}
		if err := conn.ReadJSON(&signal); err != nil {
			c.log.Error("settlement stream read failed", sl.Err(err))

			return
		}

		c.subsMu.Lock()
		handlers := make([]chain.SettledHandler, 0, len(c.subs))
		for _, h := range c.subs {
			handlers = append(handlers, h)
		}
		c.subsMu.Unlock()

		for _, h := range handlers {
			h(signal.RequestID)
		}
	}
}

func (c *Client) Close() {
	close(c.closed)
}

func (c *Client) SetReferrer(ctx context.Context, player, referrer string) error {
	const op = "remote.SetReferrer"

	err := c.post(ctx, "/v1/referrals", map[string]string{
		"player":   player,
		"referrer": referrer,
	}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) Referrer(ctx context.Context, player string) (string, error) {
	const op = "remote.Referrer"

	var resp struct {
		Referrer string `json:"referrer"`
	}
	if err := c.get(ctx, "/v1/referrals/"+player, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return resp.Referrer, nil
}

func (c *Client) ReferralRewards(ctx context.Context, player string) (map[string]*big.Int, error) {
	const op = "remote.ReferralRewards"

	var resp struct {
		Rewards map[string]string `json:"rewards"`
	}
	if err := c.get(ctx, "/v1/referrals/"+player+"/rewards", &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return parseRewards(resp.Rewards)
}

func (c *Client) ClaimReferralRewards(ctx context.Context, player string) error {
	const op = "remote.ClaimReferralRewards"

	if err := c.post(ctx, "/v1/referrals/"+player+"/claim", nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) Achievements(ctx context.Context, player string) ([]chain.Achievement, error) {
	const op = "remote.Achievements"

	var resp struct {
		Achievements []chain.Achievement `json:"achievements"`
	}
	if err := c.get(ctx, "/v1/achievements/"+player, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resp.Achievements, nil
}

var errNotFound = fmt.Errorf("not found")

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	// lets the gateway dedupe a retried submission instead of double-wagering
	req.Header.Set("Idempotency-Key", uuid.NewString())

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Error("failed to close response body", sl.Err(err))
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func parseUnits(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", s)
	}

	return v, nil
}

func parseRewards(raw map[string]string) (map[string]*big.Int, error) {
	rewards := make(map[string]*big.Int, len(raw))
	for token, amount := range raw {
		v, err := parseUnits(amount)
		if err != nil {
			return nil, err
		}
		rewards[token] = v
	}

	return rewards, nil
}
