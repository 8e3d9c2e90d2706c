package evaluator

import (
	"errors"
	"fmt"
	"sort"

	"DrawPoker/internal/game/table"
)

var ErrInvalidHand = errors.New("evaluator: hand must be 5 distinct valid cards")

type Category uint8

const (
	HighCard Category = iota
	OnePair
	TwoPair
	Trips
	Straight
	Flush
	FullHouse
	Quads
	StraightFlush
)

var categoryNames = [...]string{
	"High Card", "One Pair", "Two Pair", "Three of a Kind", "Straight",
	"Flush", "Full House", "Four of a Kind", "Straight Flush",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// Strength orders hands by category, then by the single deciding rank.
// Equal strengths are a true tie; kickers are not compared.
type Strength struct {
	Category Category `json:"category"`
	Tiebreak int      `json:"tiebreak"`
}

func (s Strength) Compare(o Strength) int {
	switch {
	case s.Category != o.Category:
		if s.Category < o.Category {
			return -1
		}
		return 1
	case s.Tiebreak < o.Tiebreak:
		return -1
	case s.Tiebreak > o.Tiebreak:
		return 1
	}
	return 0
}

func (s Strength) String() string {
	return fmt.Sprintf("%s (%d)", s.Category, s.Tiebreak)
}

func EvaluateHand(h table.Hand) (Strength, error) {
	return Evaluate(h[:])
}

// Evaluate ranks exactly five cards. Straights are Ace-high only: A-2-3-4-5 is not a straight.
func Evaluate(cards []table.Card) (Strength, error) {
	if len(cards) != 5 {
		return Strength{}, fmt.Errorf("%w: got %d cards", ErrInvalidHand, len(cards))
	}
	seen := make(map[table.Card]bool, 5)
	for _, c := range cards {
		if !c.Valid() || seen[c] {
			return Strength{}, fmt.Errorf("%w: %v", ErrInvalidHand, cards)
		}
		seen[c] = true
	}

	isFlush := true
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			isFlush = false
			break
		}
	}

	counts := make(map[int]int, 5)
	for _, c := range cards {
		counts[c.Rank]++
	}

	type group struct {
		rank  int
		count int
	}
	groups := make([]group, 0, len(counts))
	for r, n := range counts {
		groups = append(groups, group{rank: r, count: n})
	}
	// 先按张数，再按点数降序
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	high := groups[0].rank
	for _, g := range groups {
		if g.rank > high {
			high = g.rank
		}
	}

	isStraight := false
	if len(groups) == 5 {
		low := groups[len(groups)-1].rank
		isStraight = high-low == 4
	}

	switch {
	case isStraight && isFlush:
		return Strength{Category: StraightFlush, Tiebreak: high}, nil
	case groups[0].count == 4:
		return Strength{Category: Quads, Tiebreak: groups[0].rank}, nil
	case groups[0].count == 3 && groups[1].count == 2:
		return Strength{Category: FullHouse, Tiebreak: groups[0].rank}, nil
	case isFlush:
		return Strength{Category: Flush, Tiebreak: high}, nil
	case isStraight:
		return Strength{Category: Straight, Tiebreak: high}, nil
	case groups[0].count == 3:
		return Strength{Category: Trips, Tiebreak: groups[0].rank}, nil
	case groups[0].count == 2 && groups[1].count == 2:
		return Strength{Category: TwoPair, Tiebreak: groups[0].rank}, nil
	case groups[0].count == 2:
		return Strength{Category: OnePair, Tiebreak: groups[0].rank}, nil
	}
	return Strength{Category: HighCard, Tiebreak: high}, nil
}
