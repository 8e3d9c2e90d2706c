package evaluator

import (
	"fmt"

	"github.com/paulhankin/poker"

	"DrawPoker/internal/game/table"
)

// Describe returns a readable label for a hand, e.g. "pair of kings", for showdown announcements.
// The label comes from the standard evaluator, so it may name an A-5 straight that Evaluate ranks as high card.
func Describe(h table.Hand) (string, error) {
	cards := make([]poker.Card, 0, len(h))
	for i, c := range h {
		pc, err := toPokerCard(c)
		if err != nil {
			return "", fmt.Errorf("invalid card at position %d: %w", i+1, err)
		}
		cards = append(cards, pc)
	}
	return poker.Describe(cards)
}

// suits share the clubs/diamonds/hearts/spades order; aces are rank 1 there.
func toPokerCard(c table.Card) (poker.Card, error) {
	rank := c.Rank
	if rank == table.Ace {
		rank = 1
	}
	return poker.MakeCard(poker.Suit(c.Suit), poker.Rank(rank))
}
