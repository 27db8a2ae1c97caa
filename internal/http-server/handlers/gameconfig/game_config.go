package gameconfig

import (
	"context"
	"net/http"

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
	HouseEdgeBps int    `json:"house_edge_bps"`
	MinBet       string `json:"min_bet"`
	MaxBet       string `json:"max_bet"`
	RewardPool   string `json:"reward_pool"`
}

type ConfigReader interface {
	GameConfig(ctx context.Context) (chain.GameConfig, error)
}

type GameConfig struct {
	log    *slog.Logger
	reader ConfigReader
}

func NewGameConfig(log *slog.Logger, reader ConfigReader) *GameConfig {
	return &GameConfig{
		log:    log,
		reader: reader,
	}
}

func (g *GameConfig) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.gameconfig.New"

		log := g.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		cfg, err := g.reader.GameConfig(r.Context())
		if err != nil {
			log.Error("failed to read game config", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to read game config", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			HouseEdgeBps: cfg.HouseEdgeBps,
			MinBet:       converter.ConvertAmountUnitsToString(cfg.MinBet),
			MaxBet:       converter.ConvertAmountUnitsToString(cfg.MaxBet),
			RewardPool:   converter.ConvertAmountUnitsToString(cfg.RewardPool),
		})
	}
}
