package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DrawPoker/internal/game/dealer"
	"DrawPoker/internal/game/table"
)

func TestParseSelection(t *testing.T) {
	cases := []struct {
		name string
		in   []int
		want []int
		bad  bool
	}{
		{"empty keeps all", nil, nil, false},
		{"zero keeps all", []int{0}, nil, false},
		{"sorted", []int{5, 1, 3}, []int{1, 3, 5}, false},
		{"too many", []int{1, 2, 3, 4}, nil, true},
		{"out of range", []int{6}, nil, true},
		{"zero mixed in", []int{0, 2}, nil, true},
		{"duplicate", []int{2, 2}, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSelection(tc.in, 3)
			if tc.bad {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSelectionText(t *testing.T) {
	got, err := ParseSelectionText("1 3,5", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, got)

	got, err = ParseSelectionText("0", 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseSelectionText("1 x", 3)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func exchangeTable(t *testing.T, deck *dealer.Deck, ids ...string) *table.GameState {
	t.Helper()
	gs := seated(ids...)
	hands, err := deck.Deal(gs.Players)
	require.NoError(t, err)
	for id, h := range hands {
		gs.SetHand(id, h)
	}
	return gs
}

// ✅ 换牌后 牌堆 + 手牌 + 弃牌 仍是完整的 52 张
func TestExchangeConservesCards(t *testing.T) {
	deck := dealer.NewShuffledDeck(42)
	gs := exchangeTable(t, deck, "a", "b", "c")
	before, _ := gs.Hand("a")

	fp := newFakePrompter().discard("a", []int{1, 2, 3}).discard("b", []int{5})
	rec := &recorder{}
	ex := NewExchange(fp, rec, testSettings(), quietLogger())
	require.NoError(t, ex.Run(context.Background(), gs, deck))

	after, _ := gs.Hand("a")
	assert.NotEqual(t, before[0], after[0])
	assert.Equal(t, before[3], after[3])
	assert.Len(t, gs.Discards, 4)

	all := deck.Cards()
	for _, p := range gs.Players {
		h, _ := gs.Hand(p.ID)
		all = append(all, h.Cards()...)
	}
	all = append(all, gs.Discards...)
	seen := make(map[table.Card]bool)
	for _, c := range all {
		assert.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, dealer.DeckSize)

	assert.Len(t, rec.named("cards_exchanged"), 3)
	require.Len(t, rec.named("hand_updated"), 2)
}

func TestExchangeInvalidSelectionReprompts(t *testing.T) {
	deck := dealer.NewShuffledDeck(7)
	gs := exchangeTable(t, deck, "a", "b")

	fp := newFakePrompter().discard("a", []int{1, 2, 3, 4}, []int{2})
	rec := &recorder{}
	ex := NewExchange(fp, rec, testSettings(), quietLogger())
	require.NoError(t, ex.Run(context.Background(), gs, deck))

	assert.Len(t, rec.named("discard_rejected"), 1)
	assert.Len(t, gs.Discards, 1)
}

func TestExchangeTimeoutKeepsHand(t *testing.T) {
	deck := dealer.NewShuffledDeck(3)
	gs := exchangeTable(t, deck, "a", "b")
	before, _ := gs.Hand("a")

	fp := newFakePrompter().mute("a").discard("b", []int{1})
	ex := NewExchange(fp, &recorder{}, testSettings(), quietLogger())

	start := time.Now()
	require.NoError(t, ex.Run(context.Background(), gs, deck))
	assert.Less(t, time.Since(start), 2*time.Second)

	after, _ := gs.Hand("a")
	assert.Equal(t, before, after)
	assert.Len(t, gs.Discards, 1)
}

func TestExchangeEmptyDeck(t *testing.T) {
	a := table.Hand{card(table.Spades, 13), card(table.Hearts, 13), card(table.Clubs, 2), card(table.Diamonds, 5), card(table.Clubs, 9)}
	b := table.Hand{card(table.Diamonds, 14), card(table.Clubs, 11), card(table.Hearts, 8), card(table.Spades, 6), card(table.Clubs, 3)}
	deck := shortDeck(interleave(a, b)...)
	gs := exchangeTable(t, deck, "a", "b")

	fp := newFakePrompter().discard("a", []int{1})
	ex := NewExchange(fp, &recorder{}, testSettings(), quietLogger())
	err := ex.Run(context.Background(), gs, deck)
	assert.ErrorIs(t, err, ErrEmptyDeck)

	h, _ := gs.Hand("a")
	assert.Equal(t, a, h)
}
