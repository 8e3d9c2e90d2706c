package table

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thoas/go-funk"
)

var (
	ErrInvalidTransition = errors.New("table: invalid phase transition")
	ErrNotInLobby        = errors.New("table: players can only join in the lobby")
	ErrPlayerExists      = errors.New("table: player already seated")
)

// Player 以 ID 判等，Handle 为聊天平台上的提及字符串
type Player struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
}

// GameState 单局五张抽牌的可变状态，只由 engine 修改。
// 写操作都经过带锁的方法；engine 所在 goroutine 可以直接读字段。
type GameState struct {
	mu sync.RWMutex

	ID        string
	OwnerID   string
	Players   []Player
	Phase     Phase
	CreatedAt time.Time

	Pot           int64
	CurrentBet    int64
	RoundBets     map[string]int64 // 当前轮已下注
	Contributions map[string]int64 // 两轮累计扣款
	Folded        map[string]bool
	Hands         map[string]Hand
	Discards      []Card
	TurnIndex     int
	OpenerIndex   int
	Round         int
}

func NewGameState(id, ownerID string) *GameState {
	return &GameState{
		ID:            id,
		OwnerID:       ownerID,
		Phase:         Lobby,
		CreatedAt:     time.Now(),
		RoundBets:     make(map[string]int64),
		Contributions: make(map[string]int64),
		Folded:        make(map[string]bool),
		Hands:         make(map[string]Hand),
	}
}

// AddPlayer seats a player while the session is still in the lobby.
func (gs *GameState) AddPlayer(p Player) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.Phase != Lobby {
		return ErrNotInLobby
	}
	if gs.indexOf(p.ID) >= 0 {
		return ErrPlayerExists
	}
	gs.Players = append(gs.Players, p)
	return nil
}

func (gs *GameState) HasPlayer(id string) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.indexOf(id) >= 0
}

func (gs *GameState) PlayerCount() int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return len(gs.Players)
}

func (gs *GameState) indexOf(id string) int {
	for i, p := range gs.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (gs *GameState) Player(id string) (Player, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	if i := gs.indexOf(id); i >= 0 {
		return gs.Players[i], true
	}
	return Player{}, false
}

// Advance moves to the next phase. Only the immediate successor is accepted.
func (gs *GameState) Advance(to Phase) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if to != gs.Phase+1 || to > Closed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, gs.Phase, to)
	}
	gs.Phase = to
	return nil
}

// Abort closes the session from any phase (abandoned session or deck exhaustion).
func (gs *GameState) Abort() {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.Phase = Closed
}

func (gs *GameState) CurrentPhase() Phase {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.Phase
}

// StartRound resets per-round betting state. The opener is the first player still in the hand.
func (gs *GameState) StartRound(round int) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.Round = round
	gs.RoundBets = make(map[string]int64)
	gs.CurrentBet = 0
	gs.TurnIndex = 0
	gs.OpenerIndex = len(gs.Players)
	for i, p := range gs.Players {
		if !gs.Folded[p.ID] {
			gs.OpenerIndex = i
			break
		}
	}
}

func (gs *GameState) SetTurn(i int) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.TurnIndex = i
}

// CurrentPlayer returns the player at TurnIndex.
func (gs *GameState) CurrentPlayer() (Player, bool) {
	if gs.TurnIndex < 0 || gs.TurnIndex >= len(gs.Players) {
		return Player{}, false
	}
	return gs.Players[gs.TurnIndex], true
}

func (gs *GameState) IsOpener() bool {
	return gs.TurnIndex == gs.OpenerIndex
}

func (gs *GameState) IsFolded(id string) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.Folded[id]
}

func (gs *GameState) Fold(id string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.Folded[id] = true
}

// ActivePlayers returns the players who have not folded, in seat order.
func (gs *GameState) ActivePlayers() []Player {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return funk.Filter(gs.Players, func(p Player) bool {
		return !gs.Folded[p.ID]
	}).([]Player)
}

// Commit records a successful debit: debited chips go to the pot, the player's round bet becomes roundBet.
func (gs *GameState) Commit(id string, debited, roundBet int64) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.RoundBets[id] = roundBet
	gs.Contributions[id] += debited
	gs.Pot += debited
	if roundBet > gs.CurrentBet {
		gs.CurrentBet = roundBet
	}
}

func (gs *GameState) SetHand(id string, h Hand) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.Hands[id] = h
}

func (gs *GameState) Hand(id string) (Hand, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	h, ok := gs.Hands[id]
	return h, ok
}

func (gs *GameState) Discard(cards ...Card) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.Discards = append(gs.Discards, cards...)
}

// Snapshot 对外可见的桌面信息（不含手牌）
type Snapshot struct {
	ID         string           `json:"id"`
	OwnerID    string           `json:"ownerId"`
	Players    []Player         `json:"players"`
	Phase      string           `json:"phase"`
	Round      int              `json:"round"`
	Pot        int64            `json:"pot"`
	CurrentBet int64            `json:"currentBet"`
	RoundBets  map[string]int64 `json:"roundBets"`
	Folded     []string         `json:"folded"`
	TurnIndex  int              `json:"turnIndex"`
}

func (gs *GameState) Snapshot() Snapshot {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	s := Snapshot{
		ID:         gs.ID,
		OwnerID:    gs.OwnerID,
		Players:    append([]Player(nil), gs.Players...),
		Phase:      gs.Phase.String(),
		Round:      gs.Round,
		Pot:        gs.Pot,
		CurrentBet: gs.CurrentBet,
		RoundBets:  make(map[string]int64, len(gs.RoundBets)),
		Folded:     make([]string, 0, len(gs.Folded)),
		TurnIndex:  gs.TurnIndex,
	}
	for id, v := range gs.RoundBets {
		s.RoundBets[id] = v
	}
	for _, p := range gs.Players {
		if gs.Folded[p.ID] {
			s.Folded = append(s.Folded, p.ID)
		}
	}
	return s
}
