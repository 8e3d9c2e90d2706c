package table

import "fmt"

// Suit 0-3, Rank 2-14 (A = 14)
const (
	Clubs = iota
	Diamonds
	Hearts
	Spades
)

const (
	Jack  = 11
	Queen = 12
	King  = 13
	Ace   = 14
)

type Card struct {
	Suit int `json:"suit"`
	Rank int `json:"rank"`
}

// Hand is a player's five cards; positions are 1-based when addressed by players.
type Hand [5]Card

var (
	suitSymbols = []string{"♣", "♦", "♥", "♠"}
	suitNames   = []string{"clubs", "diamonds", "hearts", "spades"}
	faceRanks   = map[int]string{Jack: "J", Queen: "Q", King: "K", Ace: "A"}
)

func (c Card) Valid() bool {
	return c.Suit >= Clubs && c.Suit <= Spades && c.Rank >= 2 && c.Rank <= Ace
}

func (c Card) rankString() string {
	if r, ok := faceRanks[c.Rank]; ok {
		return r
	}
	return fmt.Sprintf("%d", c.Rank)
}

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return c.rankString() + suitSymbols[c.Suit]
}

// Code 卡牌图片文件名，例如 spades_K / hearts_10
func (c Card) Code() string {
	if !c.Valid() {
		return ""
	}
	return suitNames[c.Suit] + "_" + c.rankString()
}

func (h Hand) Cards() []Card {
	return append([]Card(nil), h[:]...)
}

func (h Hand) Codes() []string {
	out := make([]string, 0, len(h))
	for _, c := range h {
		out = append(out, c.Code())
	}
	return out
}
