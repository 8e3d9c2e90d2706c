package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"DrawPoker/internal/game/dealer"
	"DrawPoker/internal/game/table"
	"DrawPoker/internal/ledger"
)

// ---------------------
//   ACTION DEFINITION
// ---------------------

type Action string

const (
	ActionBet   Action = "bet"
	ActionCall  Action = "call"
	ActionRaise Action = "raise"
	ActionFold  Action = "fold"
)

// Decision 玩家对一次行动请求的回复；Amount 只对 bet/raise 有意义
type Decision struct {
	Action Action `json:"action"`
	Amount int64  `json:"amount,omitempty"`
}

// Prompter 向玩家发起请求并等待回复（聊天平台/websocket 由外部实现）。
// 实现必须在 ctx 结束时返回；无法送达时返回 ErrUnreachable。
type Prompter interface {
	RequestAction(ctx context.Context, sessionID string, p table.Player, legal []Action, timeout time.Duration) (Decision, error)
	RequestDiscard(ctx context.Context, sessionID string, p table.Player, hand table.Hand, timeout time.Duration) ([]int, error)
}

type Event struct {
	Name string         `json:"event"`
	Data map[string]any `json:"data"`
}

// Notifier 单向推送桌面事件，不等待回复
type Notifier interface {
	Broadcast(playerIDs []string, ev Event)
	Send(playerID string, ev Event)
}

type nopNotifier struct{}

func (nopNotifier) Broadcast([]string, Event) {}
func (nopNotifier) Send(string, Event)        {}

type Settings struct {
	MinBet          int64
	MaxBet          int64
	MaxDiscards     int
	MaxAttempts     int
	MaxPlayers      int
	TurnTimeout     time.Duration
	ExchangeTimeout time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MinBet:          100,
		MaxBet:          500,
		MaxDiscards:     3,
		MaxAttempts:     3,
		MaxPlayers:      9,
		TurnTimeout:     60 * time.Second,
		ExchangeTimeout: 45 * time.Second,
	}
}

// Deps 引擎依赖；Notifier/Logger/NewDeck 可为空
type Deps struct {
	Ledger   ledger.Ledger
	Prompter Prompter
	Notifier Notifier
	Logger   *log.Logger
	Settings Settings
	NewDeck  func() *dealer.Deck
}

// WithDefaults fills optional dependencies and zero settings.
func (d Deps) WithDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.Settings == (Settings{}) {
		d.Settings = DefaultSettings()
	}
	if d.Settings.MaxAttempts < 1 {
		d.Settings.MaxAttempts = 1
	}
	if d.NewDeck == nil {
		d.NewDeck = func() *dealer.Deck {
			return dealer.NewShuffledDeck(rand.Int63())
		}
	}
	return d
}

func playerIDs(players []table.Player) []string {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	return ids
}
