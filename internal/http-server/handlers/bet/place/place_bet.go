package place_bet

import (
	"context"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/engine"
	resp "github.com/Shibun-a/OnChainGame/internal/lib/api/response"
	"github.com/Shibun-a/OnChainGame/internal/lib/converter"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
	"github.com/Shibun-a/OnChainGame/internal/repository"
)

type Request struct {
	Player     string `json:"player" validate:"required"`
	Token      string `json:"token" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
	Multiplier int    `json:"multiplier" validate:"omitempty,oneof=2 5 10"`
}

type Response struct {
	resp.Response
	RequestID uint64 `json:"request_id"`
}

type BetPlacer interface {
	PlaceDiceBet(ctx context.Context, player, token string, amount *big.Int, multiplier int) (uint64, error)
	PlacePokerBet(ctx context.Context, player, token string, amount *big.Int) (uint64, error)
}

type Bet struct {
	log       *slog.Logger
	validator *validator.Validate
	placer    BetPlacer
}

func NewBet(log *slog.Logger, placer BetPlacer) *Bet {
	return &Bet{
		log:       log,
		validator: validator.New(),
		placer:    placer,
	}
}

func (b *Bet) NewDice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bet.place.NewDice"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		req, amount, ok := b.decodeRequest(w, r, log)
		if !ok {
			return
		}

		if req.Multiplier == 0 {
			log.Error("multiplier is required for dice")

			render.JSON(w, r, resp.Error("multiplier is required", http.StatusBadRequest))

			return
		}

		requestID, err := b.placer.PlaceDiceBet(r.Context(), req.Player, req.Token, amount, req.Multiplier)
		if err != nil {
			b.renderPlacementError(w, r, log, err)

			return
		}

		log.Info("dice bet placed", sl.RequestID(requestID))

		responseOK(w, r, requestID)
	}
}

func (b *Bet) NewPoker() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bet.place.NewPoker"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		req, amount, ok := b.decodeRequest(w, r, log)
		if !ok {
			return
		}

		requestID, err := b.placer.PlacePokerBet(r.Context(), req.Player, req.Token, amount)
		if err != nil {
			b.renderPlacementError(w, r, log, err)

			return
		}

		log.Info("poker bet placed", sl.RequestID(requestID))

		responseOK(w, r, requestID)
	}
}

func (b *Bet) decodeRequest(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
) (Request, *big.Int, bool) {
	var req Request

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))

		render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

		return req, nil, false
	}

	log.Info("request body decoded", slog.Any("request", req))

	if err := b.validator.Struct(req); err != nil {
		validateErr := err.(validator.ValidationErrors)

		log.Error("invalid request", sl.Err(err))

		render.JSON(w, r, resp.ValidationError(validateErr))

		return req, nil, false
	}

	amount, err := converter.ConvertAmountStringToUnits(req.Amount)
	if err != nil {
		log.Error("malformed amount", sl.Err(err))

		render.JSON(w, r, resp.Error("malformed amount", http.StatusBadRequest))

		return req, nil, false
	}

	return req, amount, true
}

func (b *Bet) renderPlacementError(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	err error,
) {
	log.Error("failed to place bet", sl.Err(err))

	switch {
	case errors.Is(err, engine.ErrUnknownTier):
		render.JSON(w, r, resp.Error("unknown multiplier tier", http.StatusBadRequest))
	case errors.Is(err, engine.ErrBetOutOfBounds):
		render.JSON(w, r, resp.Error("bet amount out of bounds", http.StatusBadRequest))
	case errors.Is(err, engine.ErrPoolInsufficient):
		render.JSON(w, r, resp.Error("reward pool cannot cover the bet", http.StatusConflict))
	case errors.Is(err, repository.ErrInsufficientBalance):
		render.JSON(w, r, resp.Error("insufficient balance", http.StatusPaymentRequired))
	case errors.Is(err, repository.ErrInsufficientAllowance):
		render.JSON(w, r, resp.Error("insufficient allowance", http.StatusPaymentRequired))
	default:
		render.JSON(w, r, resp.Error("failed to place bet", http.StatusInternalServerError))
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, requestID uint64) {
	render.JSON(w, r, Response{
		Response:  resp.OK(),
		RequestID: requestID,
	})
}
