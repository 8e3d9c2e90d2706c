package dealer

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"DrawPoker/internal/game/table"
)

const (
	DeckSize = 52
	HandSize = 5
)

var (
	ErrEmptyDeck       = errors.New("dealer: deck is empty")
	ErrInvalidPosition = errors.New("dealer: invalid hand position")
)

// Deck 只负责洗牌与发牌（无规则判断）。
// 抽牌互斥，换牌阶段可以被多个 goroutine 同时调用。
type Deck struct {
	mu    sync.Mutex
	cards []table.Card
	rnd   *rand.Rand
}

// NewDeck returns the 52 cards in canonical order (suit-major, 2..A). It is not shuffled.
func NewDeck(rnd *rand.Rand) *Deck {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Deck{
		cards: canonical(),
		rnd:   rnd,
	}
}

// NewShuffledDeck 初始化一副牌并洗牌
func NewShuffledDeck(seed int64) *Deck {
	d := NewDeck(rand.New(rand.NewSource(seed)))
	d.Shuffle()
	return d
}

// NewDeckFromCards builds a deck whose next draws are taken from the end of cards.
func NewDeckFromCards(cards []table.Card) *Deck {
	return &Deck{
		cards: append([]table.Card(nil), cards...),
		rnd:   rand.New(rand.NewSource(1)),
	}
}

func canonical() []table.Card {
	deck := make([]table.Card, 0, DeckSize)
	for s := table.Clubs; s <= table.Spades; s++ {
		for r := 2; r <= table.Ace; r++ {
			deck = append(deck, table.Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Shuffle permutes the remaining cards uniformly (Fisher-Yates).
func (d *Deck) Shuffle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rnd.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the last card.
func (d *Deck) Draw() (table.Card, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draw()
}

func (d *Deck) draw() (table.Card, error) {
	n := len(d.cards)
	if n == 0 {
		return table.Card{}, ErrEmptyDeck
	}
	c := d.cards[n-1]
	d.cards = d.cards[:n-1]
	return c, nil
}

func (d *Deck) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards)
}

// Cards returns a copy of the cards still in the deck.
func (d *Deck) Cards() []table.Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]table.Card(nil), d.cards...)
}

// Deal 给每个玩家发 5 张牌，轮流发（每轮每人一张）
func (d *Deck) Deal(players []table.Player) (map[string]table.Hand, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if need := HandSize * len(players); need > len(d.cards) {
		return nil, fmt.Errorf("%w: need %d cards, %d left", ErrEmptyDeck, need, len(d.cards))
	}

	out := make(map[string]table.Hand, len(players))
	for i := 0; i < HandSize; i++ {
		for _, p := range players {
			c, err := d.draw()
			if err != nil {
				return nil, err
			}
			h := out[p.ID]
			h[i] = c
			out[p.ID] = h
		}
	}
	return out, nil
}

// Redraw replaces the cards at the given 1-based positions with fresh draws.
// All-or-nothing: the deck is checked before any card is taken.
func (d *Deck) Redraw(h table.Hand, positions []int) (table.Hand, []table.Card, error) {
	for _, pos := range positions {
		if pos < 1 || pos > HandSize {
			return h, nil, fmt.Errorf("%w: %d", ErrInvalidPosition, pos)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(positions) > len(d.cards) {
		return h, nil, fmt.Errorf("%w: need %d cards, %d left", ErrEmptyDeck, len(positions), len(d.cards))
	}

	discarded := make([]table.Card, 0, len(positions))
	for _, pos := range positions {
		c, err := d.draw()
		if err != nil {
			return h, nil, err
		}
		discarded = append(discarded, h[pos-1])
		h[pos-1] = c
	}
	return h, discarded, nil
}
