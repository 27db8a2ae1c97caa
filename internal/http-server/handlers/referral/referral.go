package referral

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/chain"
	resp "github.com/Shibun-a/OnChainGame/internal/lib/api/response"
	"github.com/Shibun-a/OnChainGame/internal/lib/converter"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
)

type SetRequest struct {
	Player   string `json:"player" validate:"required"`
	Referrer string `json:"referrer" validate:"required"`
}

type RewardsResponse struct {
	resp.Response
	Referrer string            `json:"referrer,omitempty"`
	Rewards  map[string]string `json:"rewards"`
}

type Referral struct {
	log       *slog.Logger
	validator *validator.Validate
	client    chain.Client
}

func NewReferral(log *slog.Logger, client chain.Client) *Referral {
	return &Referral{
		log:       log,
		validator: validator.New(),
		client:    client,
	}
}

func (h *Referral) NewSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.referral.NewSet"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req SetRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := h.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		err := h.client.SetReferrer(r.Context(), req.Player, req.Referrer)
		switch {
		case errors.Is(err, chain.ErrSelfReferral):
			render.JSON(w, r, resp.Error("cannot refer yourself", http.StatusBadRequest))

			return
		case errors.Is(err, chain.ErrReferrerAlreadySet):
			render.JSON(w, r, resp.Error("referrer already set", http.StatusConflict))

			return
		case err != nil:
			log.Error("failed to set referrer", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to set referrer", http.StatusInternalServerError))

			return
		}

		log.Info("referrer set",
			slog.String("player", req.Player),
			slog.String("referrer", req.Referrer))

		render.JSON(w, r, resp.OK())
	}
}

func (h *Referral) NewRewards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.referral.NewRewards"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		player := chi.URLParam(r, "player")
		if player == "" {
			render.JSON(w, r, resp.Error("player address is required", http.StatusBadRequest))

			return
		}

		referrer, err := h.client.Referrer(r.Context(), player)
		if err != nil {
			log.Error("failed to read referrer", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to read referrer", http.StatusInternalServerError))

			return
		}

		rewards, err := h.client.ReferralRewards(r.Context(), player)
		if err != nil {
			log.Error("failed to read referral rewards", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to read referral rewards", http.StatusInternalServerError))

			return
		}

		rendered := make(map[string]string, len(rewards))
		for token, amount := range rewards {
			rendered[token] = converter.ConvertAmountUnitsToString(amount)
		}

		render.JSON(w, r, RewardsResponse{
			Response: resp.OK(),
			Referrer: referrer,
			Rewards:  rendered,
		})
	}
}

func (h *Referral) NewClaim() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.referral.NewClaim"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		player := chi.URLParam(r, "player")
		if player == "" {
			render.JSON(w, r, resp.Error("player address is required", http.StatusBadRequest))

			return
		}

		err := h.client.ClaimReferralRewards(r.Context(), player)
		switch {
		case errors.Is(err, chain.ErrNoRewardsToClaim):
			render.JSON(w, r, resp.Error("no rewards to claim", http.StatusNotFound))

			return
		case err != nil:
			log.Error("failed to claim referral rewards", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to claim referral rewards", http.StatusInternalServerError))

			return
		}

		log.Info("referral rewards claimed", slog.String("player", player))

		render.JSON(w, r, resp.OK())
	}
}
