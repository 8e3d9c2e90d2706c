package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"DrawPoker/internal/game/evaluator"
	"DrawPoker/internal/game/table"
	"DrawPoker/internal/ledger"
)

// Result 结算结果。Remainder 为平分后无法整除的余数，不发给任何人
type Result struct {
	SessionID    string                        `json:"session"`
	Winners      []string                      `json:"winners"`
	Pot          int64                         `json:"pot"`
	Share        int64                         `json:"share"`
	Remainder    int64                         `json:"remainder"`
	Uncontested  bool                          `json:"uncontested"`
	Strengths    map[string]evaluator.Strength `json:"strengths,omitempty"`
	Descriptions map[string]string             `json:"descriptions,omitempty"`
	Hands        map[string][]string           `json:"hands,omitempty"`
}

type Settlement struct {
	ledger ledger.Ledger
	logger *log.Logger
}

func NewSettlement(l ledger.Ledger, logger *log.Logger) *Settlement {
	return &Settlement{ledger: l, logger: logger}
}

// Settle evaluates every non-folded hand, splits the pot evenly among the best and closes the session.
// With a single player left the pot goes to them without evaluation.
func (s *Settlement) Settle(ctx context.Context, gs *table.GameState) (*Result, error) {
	if ph := gs.CurrentPhase(); ph != table.Showdown {
		return nil, fmt.Errorf("%w: settle in phase %s", table.ErrInvalidTransition, ph)
	}

	active := gs.ActivePlayers()
	switch len(active) {
	case 0:
		return nil, ErrNoEligiblePlayers
	case 1:
		return s.SettleUncontested(ctx, gs)
	}

	res := &Result{
		SessionID:    gs.ID,
		Pot:          gs.Pot,
		Strengths:    make(map[string]evaluator.Strength, len(active)),
		Descriptions: make(map[string]string, len(active)),
		Hands:        make(map[string][]string, len(active)),
	}

	var best evaluator.Strength
	for i, p := range active {
		h, ok := gs.Hand(p.ID)
		if !ok {
			return nil, fmt.Errorf("engine: no hand for %s", p.ID)
		}
		st, err := evaluator.EvaluateHand(h)
		if err != nil {
			return nil, err
		}
		res.Strengths[p.ID] = st
		res.Hands[p.ID] = h.Codes()
		if desc, err := evaluator.Describe(h); err == nil {
			res.Descriptions[p.ID] = desc
		}

		switch c := st.Compare(best); {
		case i == 0 || c > 0:
			best = st
			res.Winners = []string{p.ID}
		case c == 0:
			res.Winners = append(res.Winners, p.ID)
		}
	}

	n := int64(len(res.Winners))
	res.Share = res.Pot / n
	res.Remainder = res.Pot - res.Share*n

	if err := s.pay(ctx, res); err != nil {
		return res, err
	}
	return res, gs.Advance(table.Closed)
}

// SettleUncontested awards the whole pot to the only player who has not folded.
func (s *Settlement) SettleUncontested(ctx context.Context, gs *table.GameState) (*Result, error) {
	if ph := gs.CurrentPhase(); ph != table.Showdown {
		return nil, fmt.Errorf("%w: settle in phase %s", table.ErrInvalidTransition, ph)
	}
	active := gs.ActivePlayers()
	if len(active) != 1 {
		return nil, ErrNoEligiblePlayers
	}

	res := &Result{
		SessionID:   gs.ID,
		Winners:     []string{active[0].ID},
		Pot:         gs.Pot,
		Share:       gs.Pot,
		Uncontested: true,
	}
	if err := s.pay(ctx, res); err != nil {
		return res, err
	}
	return res, gs.Advance(table.Closed)
}

func (s *Settlement) pay(ctx context.Context, res *Result) error {
	if res.Share <= 0 {
		return nil
	}
	var errs []error
	for _, id := range res.Winners {
		if err := s.ledger.Credit(ctx, id, res.Share); err != nil {
			s.logger.Error("credit failed", "session", res.SessionID, "player", id, "amount", res.Share, "err", err)
			errs = append(errs, fmt.Errorf("credit %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
