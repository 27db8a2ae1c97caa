package balance

import (
	"context"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/chain"
	resp "github.com/Shibun-a/OnChainGame/internal/lib/api/response"
	"github.com/Shibun-a/OnChainGame/internal/lib/converter"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
)

type Response struct {
	resp.Response
	Player  string `json:"player"`
	Token   string `json:"token"`
	Balance string `json:"balance"`
}

type TokensResponse struct {
	resp.Response
	Tokens []chain.TokenInfo `json:"tokens"`
}

type BalanceReader interface {
	Balance(player, token string) (*big.Int, error)
}

type TokenLister interface {
	SupportedTokens(ctx context.Context) ([]chain.TokenInfo, error)
}

// Approver is the ERC20 allowance surface. Only the simulated bankroll
// implements it; against a real chain approvals happen in the wallet.
type Approver interface {
	Approve(player, token string, amount *big.Int)
}

type Balance struct {
	log    *slog.Logger
	reader BalanceReader
	tokens TokenLister
}

func NewBalance(log *slog.Logger, reader BalanceReader, tokens TokenLister) *Balance {
	return &Balance{
		log:    log,
		reader: reader,
		tokens: tokens,
	}
}

func (b *Balance) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.balance.New"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		player := chi.URLParam(r, "player")
		token := chi.URLParam(r, "token")
		if player == "" || token == "" {
			log.Error("player or token is missing")

			render.JSON(w, r, resp.Error("player and token are required", http.StatusBadRequest))

			return
		}

		amount, err := b.reader.Balance(player, token)
		if err != nil {
			log.Error("failed to read balance", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to read balance", http.StatusInternalServerError))

			return
		}

		log.Info("balance read",
			slog.String("player", player),
			slog.String("token", token),
			slog.String("balance", amount.String()))

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Player:   player,
			Token:    token,
			Balance:  converter.ConvertAmountUnitsToString(amount),
		})
	}
}

func (b *Balance) NewApprove(approver Approver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.balance.NewApprove"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req struct {
			Player string `json:"player"`
			Token  string `json:"token"`
			Amount string `json:"amount"`
		}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if req.Player == "" || req.Token == "" {
			render.JSON(w, r, resp.Error("player and token are required", http.StatusBadRequest))

			return
		}

		amount, err := converter.ConvertAmountStringToUnits(req.Amount)
		if err != nil {
			log.Error("malformed amount", sl.Err(err))

			render.JSON(w, r, resp.Error("malformed amount", http.StatusBadRequest))

			return
		}

		approver.Approve(req.Player, req.Token, amount)

		log.Info("allowance set",
			slog.String("player", req.Player),
			slog.String("token", req.Token),
			slog.String("amount", req.Amount))

		render.JSON(w, r, resp.OK())
	}
}

func (b *Balance) NewTokens() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.balance.NewTokens"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		tokens, err := b.tokens.SupportedTokens(r.Context())
		if err != nil {
			log.Error("failed to list tokens", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to list tokens", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, TokensResponse{
			Response: resp.OK(),
			Tokens:   tokens,
		})
	}
}
