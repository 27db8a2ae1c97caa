package main

import (
	"context"
	"database/sql"
	"math/big"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"

	"github.com/Shibun-a/OnChainGame/internal/chain"
	"github.com/Shibun-a/OnChainGame/internal/chain/remote"
	"github.com/Shibun-a/OnChainGame/internal/chain/sim"
	"github.com/Shibun-a/OnChainGame/internal/config"
	"github.com/Shibun-a/OnChainGame/internal/engine"
	"github.com/Shibun-a/OnChainGame/internal/feed"
	"github.com/Shibun-a/OnChainGame/internal/http-server/handlers/achievement"
	"github.com/Shibun-a/OnChainGame/internal/http-server/handlers/bet/history"
	"github.com/Shibun-a/OnChainGame/internal/http-server/handlers/bet/place"
	"github.com/Shibun-a/OnChainGame/internal/http-server/handlers/event"
	"github.com/Shibun-a/OnChainGame/internal/http-server/handlers/gameconfig"
	"github.com/Shibun-a/OnChainGame/internal/http-server/handlers/referral"
	"github.com/Shibun-a/OnChainGame/internal/http-server/handlers/user/balance"
	"github.com/Shibun-a/OnChainGame/internal/http-server/middleware/logger"
	"github.com/Shibun-a/OnChainGame/internal/job"
	"github.com/Shibun-a/OnChainGame/internal/lib/converter"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/handler/slogpretty"
	"github.com/Shibun-a/OnChainGame/internal/lib/logger/sl"
	"github.com/Shibun-a/OnChainGame/internal/repository"
	"github.com/Shibun-a/OnChainGame/internal/repository/mysql"

	_ "github.com/go-sql-driver/mysql"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const (
	modeSim    = "sim"
	modeRemote = "remote"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting server...", slog.String("env", cfg.Env), slog.String("mode", cfg.Mode))
	log.Debug("debug messages are enabled")

	notifier := setupNotifier(log, cfg)

	var (
		archive *repository.BetArchive
		startID uint64
	)

	if cfg.Archive.Enabled {
		db, err := sql.Open("mysql", cfg.Archive.DSN)
		if err != nil {
			log.Error("Failed to init archive storage", sl.Err(err))
			os.Exit(1)
		}

		if err = db.Ping(); err != nil {
			log.Error("Failed to init archive storage", sl.Err(err))
			os.Exit(1)
		}

		archive = repository.NewBetArchive(mysql.New(db))

		if startID, err = archive.MaxRequestID(); err != nil {
			log.Error("Failed to read archived id high-water mark", sl.Err(err))
			os.Exit(1)
		}

		log.Info("bet archive enabled", slog.Uint64("max_request_id", startID))
	}

	client, bankroll := setupChain(log, cfg, notifier, startID)

	ledger := repository.NewBetLedger()
	ledger.Advance(startID)

	eng := engine.New(log, client, ledger, bankroll, notifier)

	if archive != nil {
		eng.SetArchive(archive)
	}

	feedAdapter := feed.New(log, client, eng, cfg.Feed.PollInterval, cfg.Feed.MaxAttempts)
	eng.SetTracker(feedAdapter)

	if err := feedAdapter.Start(context.Background()); err != nil {
		log.Error("Failed to start settlement feed", sl.Err(err))
		os.Exit(1)
	}
	defer feedAdapter.Stop()

	betPlace := place_bet.NewBet(log, eng)
	betHistory := history.NewHistory(log, eng)
	userBalance := balance.NewBalance(log, eng, client)
	gameConfig := gameconfig.NewGameConfig(log, eng)
	referrals := referral.NewReferral(log, client)
	achievements := achievement.NewAchievement(log, client)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Post("/bets/dice", betPlace.NewDice())
	router.Post("/bets/poker", betPlace.NewPoker())
	router.Get("/players/{player}/bets", betHistory.New())
	router.Get("/players/{player}/stats", betHistory.NewStats())
	router.Get("/players/{player}/balances/{token}", userBalance.New())
	router.Get("/players/{player}/achievements", achievements.New())
	router.Get("/tokens", userBalance.NewTokens())

	// allowance approvals only exist in the simulator; on-chain they are
	// signed in the wallet
	if approver, ok := bankroll.(balance.Approver); ok {
		router.Post("/approvals", userBalance.NewApprove(approver))
	}
	router.Get("/game-config", gameConfig.New())
	router.Post("/referrals", referrals.NewSet())
	router.Get("/referrals/{player}", referrals.NewRewards())
	router.Post("/referrals/{player}/claim", referrals.NewClaim())

	log.Info("Server started", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Error("Server failed", sl.Err(err))
	}

	log.Error("Server stopped")
}

func setupChain(
	log *slog.Logger,
	cfg *config.Config,
	notifier event.Notifier,
	startID uint64,
) (chain.Client, engine.Bankroll) {
	if cfg.Mode == modeRemote {
		client := remote.New(log, cfg.Remote.BaseURL, cfg.Remote.WSURL)

		return client, remote.NewBankroll(client)
	}

	minBet := mustUnits(cfg.Sim.MinBet)
	maxBet := mustUnits(cfg.Sim.MaxBet)
	rewardPool := mustUnits(cfg.Sim.RewardPool)
	starting := mustUnits(cfg.Sim.StartingBalance)

	tokens := repository.NewTokenLedger()

	queue := job.NewQueue(100)
	job.NewWorkerPool(4, queue).Start()

	client := sim.NewClient(log, sim.Options{
		GameConfig: chain.GameConfig{
			HouseEdgeBps: cfg.Sim.HouseEdgeBps,
			MinBet:       minBet,
			MaxBet:       maxBet,
			RewardPool:   rewardPool,
		},
		MinDelay:       cfg.Sim.MinDelay,
		MaxDelay:       cfg.Sim.MaxDelay,
		StartRequestID: startID,
	}, tokens, queue)

	client.SetNotifier(notifier)

	return client, sim.NewBankroll(tokens, starting)
}

func setupNotifier(log *slog.Logger, cfg *config.Config) event.Notifier {
	if cfg.Event.Backend == "pusher" {
		pusherClient := &pusher.Client{
			AppID:   cfg.Event.Pusher.AppID,
			Key:     cfg.Event.Pusher.Key,
			Secret:  cfg.Event.Pusher.Secret,
			Cluster: cfg.Event.Pusher.Cluster,
		}

		return event.NewPusherEvent(log, pusherClient)
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.Event.WSURL, nil)
	if err != nil {
		log.Error("Failed to connect to ws hub", sl.Err(err))
		os.Exit(1)
	}

	return event.NewWSEvent(log, conn)
}

func mustUnits(amount string) *big.Int {
	units, err := converter.ConvertAmountStringToUnits(amount)
	if err != nil {
		panic("malformed amount in config: " + amount)
	}

	return units
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlogLogger()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlogLogger() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
