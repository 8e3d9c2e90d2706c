package main

import (
	"context"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"DrawPoker/config"
	"DrawPoker/internal/auth"
	"DrawPoker/internal/game/dealer"
	"DrawPoker/internal/game/engine"
	"DrawPoker/internal/game/manager"
	"DrawPoker/internal/ledger"
	"DrawPoker/internal/lobby"
	"DrawPoker/internal/storage"
	"DrawPoker/internal/utils"
	"DrawPoker/internal/websocket"
)

func main() {
	cfgPath := os.Getenv("POKER_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		utils.Error.Fatalf("config: %v", err)
	}
	utils.Init(cfg.Server.LogLevel)
	logger := utils.Logger("main")
	ctx := context.Background()

	//-------------------------------------------------------
	// 1. 存储 + 账本
	//-------------------------------------------------------
	var rdb *redis.Client
	if cfg.Ledger.Driver == "redis" || cfg.Redis.Addr != "" {
		rdb, err = storage.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			if cfg.Ledger.Driver == "redis" {
				logger.Fatal("redis init failed", "err", err)
			}
			logger.Warn("redis unavailable, lobby falls back to memory", "err", err)
		}
	}

	var l ledger.Ledger
	switch cfg.Ledger.Driver {
	case "redis":
		l = ledger.NewRedisLedger(rdb, cfg.Ledger.InitialBalance)
	case "postgres":
		db, err := storage.NewPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Fatal("postgres init failed", "err", err)
		}
		pl := ledger.NewPostgresLedger(db, cfg.Ledger.InitialBalance)
		if err := pl.Migrate(ctx); err != nil {
			logger.Fatal("ledger migrate failed", "err", err)
		}
		l = pl
	default:
		l = ledger.NewMemoryLedger(cfg.Ledger.InitialBalance)
	}

	var repo lobby.Repo
	if rdb != nil {
		repo = lobby.NewRedisRepo(rdb)
	} else {
		repo = lobby.NewMemoryRepo()
	}
	logger.Info("storage ready", "ledger", cfg.Ledger.Driver, "lobbyRedis", rdb != nil)

	//-------------------------------------------------------
	// 2. Hub + Bridge（必须最先启动）
	//-------------------------------------------------------
	hub := websocket.NewHub()
	bridge := websocket.NewBridge(hub)
	// OnIncoming 必须在 Run 之前设置
	hub.OnIncoming = func(msg websocket.IncomingMessage) {
		if !bridge.HandleIncoming(msg) {
			logger.Debug("ignored message", "from", msg.From, "event", msg.Event)
		}
	}
	go hub.Run()

	//-------------------------------------------------------
	// 3. GameManager + Lobby
	//-------------------------------------------------------
	deps := engine.Deps{
		Ledger:   l,
		Prompter: bridge,
		Notifier: bridge,
		Logger:   utils.Logger("engine"),
		Settings: engine.Settings{
			MinBet:          cfg.Game.MinBet,
			MaxBet:          cfg.Game.MaxBet,
			MaxDiscards:     cfg.Game.MaxDiscards,
			MaxAttempts:     cfg.Game.MaxAttempts,
			MaxPlayers:      cfg.Game.MaxPlayers,
			TurnTimeout:     cfg.Game.TurnTimeout,
			ExchangeTimeout: cfg.Game.ExchangeTimeout,
		},
	}
	if cfg.Game.Seed != 0 {
		// 固定种子：每局依次 seed, seed+1, ... 便于复现
		var n atomic.Int64
		seed := cfg.Game.Seed
		deps.NewDeck = func() *dealer.Deck {
			return dealer.NewShuffledDeck(seed + n.Add(1) - 1)
		}
	}
	gameMgr := manager.NewGameManager(deps)
	svc := lobby.NewService(gameMgr, repo, bridge, l, cfg.Lobby.PlayerTTL)

	//-------------------------------------------------------
	// 4. Gin + CORS
	//-------------------------------------------------------
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Bot-Key"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": gameMgr.Count()})
	})

	secret := []byte(cfg.JWT.Secret)
	ah := auth.NewHandler(secret, cfg.JWT.BotKey, cfg.JWT.TTL)
	r.POST("/auth/token", ah.Token)

	//-------------------------------------------------------
	// 5. 需要 JWT 的路由：WebSocket + 大厅
	//-------------------------------------------------------
	authed := r.Group("/", auth.JwtAuthMiddleware(secret))
	authed.GET("/ws", websocket.ServeWS(hub))
	lobby.NewHandler(svc).Register(authed)

	logger.Info("server running", "port", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}
