package place_bet

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/engine"
)

type fakePlacer struct {
	err       error
	requestID uint64

	gotAmount     *big.Int
	gotMultiplier int
}

func (f *fakePlacer) PlaceDiceBet(_ context.Context, _, _ string, amount *big.Int, multiplier int) (uint64, error) {
	f.gotAmount = amount
	f.gotMultiplier = multiplier

	return f.requestID, f.err
}

func (f *fakePlacer) PlacePokerBet(_ context.Context, _, _ string, amount *big.Int) (uint64, error) {
	f.gotAmount = amount

	return f.requestID, f.err
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestNewDice(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		placerErr  error
		wantStatus int
		wantID     uint64
	}{
		{
			name:       "Success",
			body:       `{"player":"0xabc","token":"0x0000000000000000000000000000000000000000","amount":"0.1","multiplier":5}`,
			wantStatus: 200,
			wantID:     7,
		},
		{
			name:       "MissingMultiplier",
			body:       `{"player":"0xabc","token":"0x00","amount":"0.1"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "InvalidMultiplier",
			body:       `{"player":"0xabc","token":"0x00","amount":"0.1","multiplier":3}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MalformedAmount",
			body:       `{"player":"0xabc","token":"0x00","amount":"lots","multiplier":2}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingPlayer",
			body:       `{"token":"0x00","amount":"0.1","multiplier":2}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "OutOfBounds",
			body:       `{"player":"0xabc","token":"0x00","amount":"5","multiplier":2}`,
			placerErr:  engine.ErrBetOutOfBounds,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "PoolInsufficient",
			body:       `{"player":"0xabc","token":"0x00","amount":"1","multiplier":10}`,
			placerErr:  engine.ErrPoolInsufficient,
			wantStatus: http.StatusConflict,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			placer := &fakePlacer{requestID: tc.wantID, err: tc.placerErr}
			log := slog.New(slog.NewTextHandler(discardWriter{}, nil))
			handler := NewBet(log, placer).NewDice()

			req := httptest.NewRequest(http.MethodPost, "/bets/dice", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			var body Response
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}

			if body.Status != tc.wantStatus {
				t.Errorf("status %d, want %d (error %q)", body.Status, tc.wantStatus, body.Error)
			}
			if tc.wantStatus == 200 && body.RequestID != tc.wantID {
				t.Errorf("request id %d, want %d", body.RequestID, tc.wantID)
			}
		})
	}
}

func TestNewDice_AmountConversion(t *testing.T) {
	t.Parallel()

	placer := &fakePlacer{requestID: 1}
	log := slog.New(slog.NewTextHandler(discardWriter{}, nil))
	handler := NewBet(log, placer).NewDice()

	body := `{"player":"0xabc","token":"0x00","amount":"0.001","multiplier":2}`
	req := httptest.NewRequest(http.MethodPost, "/bets/dice", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	want, _ := new(big.Int).SetString("1000000000000000", 10)
	if placer.gotAmount == nil || placer.gotAmount.Cmp(want) != 0 {
		t.Errorf("amount %v reached the engine, want %s base units", placer.gotAmount, want)
	}
	if placer.gotMultiplier != 2 {
		t.Errorf("multiplier %d reached the engine, want 2", placer.gotMultiplier)
	}
}
