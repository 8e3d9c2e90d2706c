package engine

import (
	"errors"

	"DrawPoker/internal/game/dealer"
	"DrawPoker/internal/ledger"
)

var (
	ErrInvalidAction     = errors.New("engine: invalid action")
	ErrOutOfRange        = errors.New("engine: amount out of range")
	ErrInvalidInput      = errors.New("engine: invalid exchange selection")
	ErrUnreachable       = errors.New("engine: player unreachable")
	ErrTimeout           = errors.New("engine: player did not respond in time")
	ErrNoEligiblePlayers = errors.New("engine: no eligible players")

	// 与下层共用同一个哨兵，errors.Is 两边都能匹配
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
	ErrEmptyDeck         = dealer.ErrEmptyDeck
)

// IsRecoverable reports whether the same actor may simply be asked again.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientFunds)
}
