package achievement

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/chain"
	resp "github.com/Shibun-a/OnChainGame/internal/lib/api/response"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
)

type Response struct {
	resp.Response
	Achievements []chain.Achievement `json:"achievements"`
}

type Achievement struct {
	log    *slog.Logger
	client chain.Client
}

func NewAchievement(log *slog.Logger, client chain.Client) *Achievement {
	return &Achievement{
		log:    log,
		client: client,
	}
}

func (h *Achievement) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.achievement.New"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		player := chi.URLParam(r, "player")
		if player == "" {
			render.JSON(w, r, resp.Error("player address is required", http.StatusBadRequest))

			return
		}

		achievements, err := h.client.Achievements(r.Context(), player)
		if err != nil {
			log.Error("failed to read achievements", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to read achievements", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			Achievements: achievements,
		})
	}
}
