package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"DrawPoker/internal/game/dealer"
	"DrawPoker/internal/game/table"
)

// ---------- 脚本化 Prompter ----------

// 队列为空时：行动请求返回 ErrUnreachable，换牌请求返回"不换"
type fakePrompter struct {
	mu       sync.Mutex
	actions  map[string][]Decision
	discards map[string][][]int
	silent   map[string]bool
	legal    map[string][][]Action
}

func newFakePrompter() *fakePrompter {
	return &fakePrompter{
		actions:  make(map[string][]Decision),
		discards: make(map[string][][]int),
		silent:   make(map[string]bool),
		legal:    make(map[string][][]Action),
	}
}

func (f *fakePrompter) act(id string, ds ...Decision) *fakePrompter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions[id] = append(f.actions[id], ds...)
	return f
}

func (f *fakePrompter) discard(id string, sel ...[]int) *fakePrompter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discards[id] = append(f.discards[id], sel...)
	return f
}

func (f *fakePrompter) mute(id string) *fakePrompter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silent[id] = true
	return f
}

func (f *fakePrompter) legalFor(id string) [][]Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]Action(nil), f.legal[id]...)
}

func (f *fakePrompter) RequestAction(ctx context.Context, _ string, p table.Player, legal []Action, _ time.Duration) (Decision, error) {
	f.mu.Lock()
	f.legal[p.ID] = append(f.legal[p.ID], legal)
	if f.silent[p.ID] {
		f.mu.Unlock()
		<-ctx.Done()
		return Decision{}, ctx.Err()
	}
	q := f.actions[p.ID]
	if len(q) == 0 {
		f.mu.Unlock()
		return Decision{}, ErrUnreachable
	}
	f.actions[p.ID] = q[1:]
	f.mu.Unlock()
	return q[0], nil
}

func (f *fakePrompter) RequestDiscard(ctx context.Context, _ string, p table.Player, _ table.Hand, _ time.Duration) ([]int, error) {
	f.mu.Lock()
	if f.silent[p.ID] {
		f.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	q := f.discards[p.ID]
	if len(q) == 0 {
		f.mu.Unlock()
		return nil, nil
	}
	f.discards[p.ID] = q[1:]
	f.mu.Unlock()
	return q[0], nil
}

// ---------- 记录事件的 Notifier ----------

type sent struct {
	to    string // 空表示广播
	event Event
}

type recorder struct {
	mu     sync.Mutex
	events []sent
}

func (r *recorder) Broadcast(_ []string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sent{event: ev})
}

func (r *recorder) Send(id string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sent{to: id, event: ev})
}

func (r *recorder) named(name string) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, s := range r.events {
		if s.event.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// ---------- 牌堆与对局工具 ----------

func card(suit, rank int) table.Card { return table.Card{Suit: suit, Rank: rank} }

// interleave 按发牌顺序展开：P0 第 1 张, P1 第 1 张, P0 第 2 张 ...
func interleave(hands ...table.Hand) []table.Card {
	var out []table.Card
	for i := 0; i < dealer.HandSize; i++ {
		for _, h := range hands {
			out = append(out, h[i])
		}
	}
	return out
}

// stackedDeck 让 draws 按顺序最先被抽出，其余牌按标准顺序垫在底下
func stackedDeck(draws ...table.Card) *dealer.Deck {
	used := make(map[table.Card]bool, len(draws))
	for _, c := range draws {
		used[c] = true
	}
	var cards []table.Card
	for _, c := range dealer.NewDeck(nil).Cards() {
		if !used[c] {
			cards = append(cards, c)
		}
	}
	for i := len(draws) - 1; i >= 0; i-- {
		cards = append(cards, draws[i])
	}
	return dealer.NewDeckFromCards(cards)
}

// shortDeck 只包含 draws，发完即空
func shortDeck(draws ...table.Card) *dealer.Deck {
	cards := make([]table.Card, 0, len(draws))
	for i := len(draws) - 1; i >= 0; i-- {
		cards = append(cards, draws[i])
	}
	return dealer.NewDeckFromCards(cards)
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func testSettings() Settings {
	s := DefaultSettings()
	s.TurnTimeout = 50 * time.Millisecond
	s.ExchangeTimeout = 50 * time.Millisecond
	return s
}

func seated(ids ...string) *table.GameState {
	gs := table.NewGameState("s1", ids[0])
	for _, id := range ids {
		_ = gs.AddPlayer(table.Player{ID: id, Handle: "@" + id})
	}
	return gs
}
