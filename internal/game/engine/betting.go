package engine

import (
	"context"
	"errors"
	"fmt"

	"DrawPoker/internal/game/table"
	"DrawPoker/internal/ledger"
)

// Betting validates and applies wagering actions for the player at TurnIndex.
// A failed debit leaves the GameState untouched.
type Betting struct {
	ledger   ledger.Ledger
	settings Settings
}

func NewBetting(l ledger.Ledger, s Settings) *Betting {
	return &Betting{ledger: l, settings: s}
}

func (b *Betting) checkTurn(gs *table.GameState, playerID string) error {
	if !gs.CurrentPhase().IsBetting() {
		return fmt.Errorf("%w: phase %s", ErrInvalidAction, gs.CurrentPhase())
	}
	p, ok := gs.CurrentPlayer()
	if !ok || p.ID != playerID {
		return fmt.Errorf("%w: not %s's turn", ErrInvalidAction, playerID)
	}
	if gs.IsFolded(playerID) {
		return fmt.Errorf("%w: %s has folded", ErrInvalidAction, playerID)
	}
	return nil
}

func (b *Betting) debit(ctx context.Context, playerID string, amount int64) error {
	err := b.ledger.Debit(ctx, playerID, amount)
	if err == nil || errors.Is(err, ErrInsufficientFunds) {
		return err
	}
	return fmt.Errorf("engine: debit %d from %s: %w", amount, playerID, err)
}

// Bet opens the round. Only the opener may bet, and only while nothing has been bet.
func (b *Betting) Bet(ctx context.Context, gs *table.GameState, playerID string, amount int64) error {
	if err := b.checkTurn(gs, playerID); err != nil {
		return err
	}
	if !gs.IsOpener() || gs.CurrentBet != 0 {
		return fmt.Errorf("%w: bet is only open to the first actor", ErrInvalidAction)
	}
	if amount < b.settings.MinBet || amount > b.settings.MaxBet {
		return fmt.Errorf("%w: bet %d not in [%d, %d]", ErrOutOfRange, amount, b.settings.MinBet, b.settings.MaxBet)
	}
	if err := b.debit(ctx, playerID, amount); err != nil {
		return err
	}
	gs.Commit(playerID, amount, amount)
	return nil
}

// Call matches the current bet. With nothing to match it is a check and succeeds without a debit.
func (b *Betting) Call(ctx context.Context, gs *table.GameState, playerID string) error {
	if err := b.checkTurn(gs, playerID); err != nil {
		return err
	}
	already := gs.RoundBets[playerID]
	required := gs.CurrentBet - already
	if required <= 0 {
		return nil
	}
	if err := b.debit(ctx, playerID, required); err != nil {
		return err
	}
	gs.Commit(playerID, required, already+required)
	return nil
}

// Raise sets a new current bet. The full amount is debited and becomes the player's round bet.
func (b *Betting) Raise(ctx context.Context, gs *table.GameState, playerID string, amount int64) error {
	if err := b.checkTurn(gs, playerID); err != nil {
		return err
	}
	if gs.CurrentBet == 0 {
		return fmt.Errorf("%w: nothing to raise", ErrInvalidAction)
	}
	if amount <= gs.CurrentBet || amount > b.settings.MaxBet {
		return fmt.Errorf("%w: raise %d not in (%d, %d]", ErrOutOfRange, amount, gs.CurrentBet, b.settings.MaxBet)
	}
	if err := b.debit(ctx, playerID, amount); err != nil {
		return err
	}
	gs.Commit(playerID, amount, amount)
	return nil
}

// Fold keeps already committed chips in the pot.
func (b *Betting) Fold(gs *table.GameState, playerID string) error {
	if err := b.checkTurn(gs, playerID); err != nil {
		return err
	}
	gs.Fold(playerID)
	return nil
}

func (b *Betting) Apply(ctx context.Context, gs *table.GameState, playerID string, d Decision) error {
	switch d.Action {
	case ActionBet:
		return b.Bet(ctx, gs, playerID, d.Amount)
	case ActionCall:
		return b.Call(ctx, gs, playerID)
	case ActionRaise:
		return b.Raise(ctx, gs, playerID, d.Amount)
	case ActionFold:
		return b.Fold(gs, playerID)
	}
	return fmt.Errorf("%w: unknown action %q", ErrInvalidAction, d.Action)
}

// LegalActions lists what the player at TurnIndex may do.
// Round 1 opener: bet or fold. Round 2 opener may also check (call of zero).
func (b *Betting) LegalActions(gs *table.GameState) []Action {
	if gs.CurrentBet == 0 {
		if gs.IsOpener() {
			if gs.Round <= 1 {
				return []Action{ActionBet, ActionFold}
			}
			return []Action{ActionBet, ActionCall, ActionFold}
		}
		return []Action{ActionCall, ActionFold}
	}
	acts := []Action{ActionCall}
	if gs.CurrentBet < b.settings.MaxBet {
		acts = append(acts, ActionRaise)
	}
	return append(acts, ActionFold)
}
