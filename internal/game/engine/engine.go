package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"DrawPoker/internal/game/dealer"
	"DrawPoker/internal/game/table"
)

// Engine 负责一局从发牌到结算的完整流程；同一局只能 Run 一次
type Engine struct {
	State *table.GameState

	deck       *dealer.Deck
	betting    *Betting
	scheduler  *Scheduler
	exchange   *Exchange
	settlement *Settlement
	notifier   Notifier
	settings   Settings
	logger     *log.Logger
}

func NewEngine(gs *table.GameState, deps Deps) *Engine {
	deps = deps.WithDefaults()
	logger := deps.Logger.With("session", gs.ID)
	betting := NewBetting(deps.Ledger, deps.Settings)

	return &Engine{
		State:      gs,
		deck:       deps.NewDeck(),
		betting:    betting,
		scheduler:  NewScheduler(betting, deps.Prompter, deps.Notifier, deps.Settings, logger),
		exchange:   NewExchange(deps.Prompter, deps.Notifier, deps.Settings, logger),
		settlement: NewSettlement(deps.Ledger, logger),
		notifier:   deps.Notifier,
		settings:   deps.Settings,
		logger:     logger,
	}
}

func (e *Engine) Deck() *dealer.Deck { return e.deck }

// Run plays the whole round. On any error the session is aborted and closed;
// chips already in the pot stay there.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	res, err := e.run(ctx)
	if err != nil {
		e.logger.Error("session aborted", "phase", e.State.CurrentPhase(), "err", err)
		e.State.Abort()
		e.notifier.Broadcast(playerIDs(e.State.Players), Event{Name: "session_aborted", Data: map[string]any{
			"session": e.State.ID,
			"reason":  err.Error(),
		}})
		return nil, err
	}
	return res, nil
}

func (e *Engine) run(ctx context.Context) (*Result, error) {
	gs := e.State
	if n := gs.PlayerCount(); n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 players, have %d", ErrNoEligiblePlayers, n)
	}
	if err := gs.Advance(table.Round1Betting); err != nil {
		return nil, err
	}

	// 发牌
	hands, err := e.deck.Deal(gs.Players)
	if err != nil {
		return nil, err
	}
	for _, p := range gs.Players {
		gs.SetHand(p.ID, hands[p.ID])
		e.notifier.Send(p.ID, Event{Name: "hand_dealt", Data: map[string]any{
			"session": gs.ID,
			"hand":    hands[p.ID].Codes(),
		}})
	}
	e.logger.Info("cards dealt", "players", len(gs.Players), "remaining", e.deck.Remaining())

	// 第一轮下注
	gs.StartRound(1)
	if err := e.scheduler.RunRound(ctx, gs); err != nil {
		return nil, err
	}
	if res, done, err := e.checkUncontested(ctx); done {
		return res, err
	}

	// 换牌
	if err := gs.Advance(table.Exchange); err != nil {
		return nil, err
	}
	if err := e.exchange.Run(ctx, gs, e.deck); err != nil {
		return nil, err
	}

	// 第二轮下注
	if err := gs.Advance(table.Round2Betting); err != nil {
		return nil, err
	}
	gs.StartRound(2)
	if err := e.scheduler.RunRound(ctx, gs); err != nil {
		return nil, err
	}
	if res, done, err := e.checkUncontested(ctx); done {
		return res, err
	}

	if err := gs.Advance(table.Showdown); err != nil {
		return nil, err
	}
	res, err := e.settlement.Settle(ctx, gs)
	if err != nil {
		return nil, err
	}
	e.announce(res)
	return res, nil
}

// checkUncontested walks the remaining phases to Showdown and settles when one player is left.
func (e *Engine) checkUncontested(ctx context.Context) (*Result, bool, error) {
	gs := e.State
	switch len(gs.ActivePlayers()) {
	case 0:
		return nil, true, ErrNoEligiblePlayers
	case 1:
	default:
		return nil, false, nil
	}

	for gs.CurrentPhase() < table.Showdown {
		if err := gs.Advance(gs.CurrentPhase() + 1); err != nil {
			return nil, true, err
		}
	}
	res, err := e.settlement.SettleUncontested(ctx, gs)
	if err != nil {
		return nil, true, err
	}
	e.announce(res)
	return res, true, nil
}

func (e *Engine) announce(res *Result) {
	e.logger.Info("pot settled", "winners", res.Winners, "pot", res.Pot, "share", res.Share, "uncontested", res.Uncontested)
	e.notifier.Broadcast(playerIDs(e.State.Players), Event{Name: "showdown", Data: map[string]any{
		"session":      res.SessionID,
		"winners":      res.Winners,
		"pot":          res.Pot,
		"share":        res.Share,
		"remainder":    res.Remainder,
		"uncontested":  res.Uncontested,
		"hands":        res.Hands,
		"descriptions": res.Descriptions,
	}})
}
