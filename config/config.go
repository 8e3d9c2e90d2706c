package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string `mapstructure:"log_level"`
	}
	Database struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	JWT struct {
		Secret string
		BotKey string        `mapstructure:"bot_key"`
		TTL    time.Duration `mapstructure:"ttl"`
	}
	Ledger struct {
		Driver         string // memory | redis | postgres
		InitialBalance int64  `mapstructure:"initial_balance"`
	}
	Lobby struct {
		PlayerTTL time.Duration `mapstructure:"player_ttl"`
	}
	Game struct {
		MinBet          int64         `mapstructure:"min_bet"`
		MaxBet          int64         `mapstructure:"max_bet"`
		MaxDiscards     int           `mapstructure:"max_discards"`
		MaxAttempts     int           `mapstructure:"max_attempts"`
		MaxPlayers      int           `mapstructure:"max_players"`
		TurnTimeout     time.Duration `mapstructure:"turn_timeout"`
		ExchangeTimeout time.Duration `mapstructure:"exchange_timeout"`
		Seed            int64         // 0 表示每局随机
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("ledger.driver", "memory")
	v.SetDefault("ledger.initial_balance", 1000)
	v.SetDefault("lobby.player_ttl", 2*time.Hour)
	v.SetDefault("game.min_bet", 100)
	v.SetDefault("game.max_bet", 500)
	v.SetDefault("game.max_discards", 3)
	v.SetDefault("game.max_attempts", 3)
	v.SetDefault("game.max_players", 9)
	v.SetDefault("game.turn_timeout", 60*time.Second)
	v.SetDefault("game.exchange_timeout", 45*time.Second)
}

// Load reads path (if not empty) on top of the defaults. POKER_ env vars override both,
// e.g. POKER_JWT_SECRET or POKER_GAME_MAX_BET.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("POKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch c.Ledger.Driver {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("config: unknown ledger driver %q", c.Ledger.Driver)
	}
	if c.Game.MinBet <= 0 || c.Game.MaxBet < c.Game.MinBet {
		return fmt.Errorf("config: invalid bet bounds [%d, %d]", c.Game.MinBet, c.Game.MaxBet)
	}
	if c.Game.MaxDiscards < 1 || c.Game.MaxDiscards > 5 {
		return fmt.Errorf("config: max_discards must be 1..5, got %d", c.Game.MaxDiscards)
	}
	if c.Game.TurnTimeout <= 0 {
		return fmt.Errorf("config: turn_timeout must be positive, got %s", c.Game.TurnTimeout)
	}
	if c.Game.ExchangeTimeout < 30*time.Second || c.Game.ExchangeTimeout > 60*time.Second {
		return fmt.Errorf("config: exchange_timeout must be 30s..60s, got %s", c.Game.ExchangeTimeout)
	}
	if c.Game.MaxPlayers < 2 || c.Game.MaxPlayers*5 > 52 {
		return fmt.Errorf("config: max_players must be 2..10, got %d", c.Game.MaxPlayers)
	}
	return nil
}
