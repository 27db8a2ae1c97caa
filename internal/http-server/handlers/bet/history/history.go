package history

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	model "github.com/Shibun-a/OnChainGame/internal/http-server/model"
	resp "github.com/Shibun-a/OnChainGame/internal/lib/api/response"
	"github.com/Shibun-a/OnChainGame/internal/lib/converter"
	"github.com/Shibun-a/OnChainGame/internal/stats"
)

type BetView struct {
	RequestID  uint64 `json:"request_id"`
	Game       string `json:"game"`
	Token      string `json:"token"`
	Amount     string `json:"amount"`
	Multiplier int    `json:"multiplier"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`

	Roll       int    `json:"roll,omitempty"`
	PlayerRank string `json:"player_rank,omitempty"`
	DealerRank string `json:"dealer_rank,omitempty"`
	Payout     string `json:"payout,omitempty"`
	Result     string `json:"result,omitempty"`
}

type Response struct {
	resp.Response
	Bets []BetView `json:"bets"`
}

type StatsResponse struct {
	resp.Response
	TotalBets    int     `json:"total_bets"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Ties         int     `json:"ties"`
	TotalWagered string  `json:"total_wagered"`
	TotalWon     string  `json:"total_won"`
	NetProfit    string  `json:"net_profit"`
	WinRate      float64 `json:"win_rate"`
}

type HistoryProvider interface {
	History(player string) []model.Bet
}

type History struct {
	log      *slog.Logger
	provider HistoryProvider
}

func NewHistory(log *slog.Logger, provider HistoryProvider) *History {
	return &History{
		log:      log,
		provider: provider,
	}
}

func (h *History) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bet.history.New"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		player := chi.URLParam(r, "player")
		if player == "" {
			log.Error("player address is missing")

			render.JSON(w, r, resp.Error("player address is required", http.StatusBadRequest))

			return
		}

		bets := h.provider.History(player)

		log.Info("history loaded", slog.String("player", player), slog.Int("bets", len(bets)))

		views := make([]BetView, 0, len(bets))
		for _, bet := range bets {
			views = append(views, toView(bet))
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Bets:     views,
		})
	}
}

// NewStats folds the same history into per-player aggregates.
func (h *History) NewStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bet.history.NewStats"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		player := chi.URLParam(r, "player")
		if player == "" {
			log.Error("player address is missing")

			render.JSON(w, r, resp.Error("player address is required", http.StatusBadRequest))

			return
		}

		s := stats.Compute(h.provider.History(player))

		render.JSON(w, r, StatsResponse{
			Response:     resp.OK(),
			TotalBets:    s.TotalBets,
			Wins:         s.Wins,
			Losses:       s.Losses,
			Ties:         s.Ties,
			TotalWagered: converter.ConvertAmountUnitsToString(s.TotalWagered),
			TotalWon:     converter.ConvertAmountUnitsToString(s.TotalWon),
			NetProfit:    converter.ConvertAmountUnitsToString(s.NetProfit),
			WinRate:      s.WinRate,
		})
	}
}

func toView(bet model.Bet) BetView {
	view := BetView{
		RequestID:  bet.RequestID,
		Game:       string(bet.Game),
		Token:      bet.Token,
		Amount:     converter.ConvertAmountUnitsToString(bet.Amount),
		Multiplier: bet.Multiplier,
		Status:     string(bet.Status),
		CreatedAt:  bet.CreatedAt.Unix(),
	}

	if bet.Outcome == nil {
		return view
	}

	view.Payout = converter.ConvertAmountUnitsToString(bet.Outcome.Payout)
	view.Result = string(bet.Outcome.Result)

	if bet.Game == "dice" {
		view.Roll = bet.Outcome.Roll
	} else {
		view.PlayerRank = bet.Outcome.PlayerRank.String()
		view.DealerRank = bet.Outcome.DealerRank.String()
	}

	return view
}
