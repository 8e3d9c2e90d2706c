package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/thoas/go-funk"
	"github.com/weedbox/timebank"

	"DrawPoker/internal/game/table"
)

// Scheduler 驱动一轮单圈下注：每位未弃牌玩家按座位顺序行动一次，不回头补注
type Scheduler struct {
	betting  *Betting
	prompter Prompter
	notifier Notifier
	settings Settings
	logger   *log.Logger
	tb       *timebank.TimeBank
}

func NewScheduler(b *Betting, p Prompter, n Notifier, s Settings, logger *log.Logger) *Scheduler {
	return &Scheduler{
		betting:  b,
		prompter: p,
		notifier: n,
		settings: s,
		logger:   logger,
		tb:       timebank.NewTimeBank(),
	}
}

// RunRound prompts each non-folded player once. The round ends early when fewer than two remain.
// Only a cancelled parent context or an unrecoverable ledger failure is returned.
func (s *Scheduler) RunRound(ctx context.Context, gs *table.GameState) error {
	n := len(gs.Players)
	defer gs.SetTurn(n)

	for i := 0; i < n; i++ {
		if len(gs.ActivePlayers()) < 2 {
			return nil
		}
		p := gs.Players[i]
		if gs.IsFolded(p.ID) {
			continue
		}
		gs.SetTurn(i)
		if err := s.takeTurn(ctx, gs, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) takeTurn(ctx context.Context, gs *table.GameState, p table.Player) error {
	ids := playerIDs(gs.Players)
	s.notifier.Broadcast(ids, Event{Name: "turn_started", Data: map[string]any{
		"session": gs.ID,
		"player":  p.ID,
		"round":   gs.Round,
		"bet":     gs.CurrentBet,
		"pot":     gs.Pot,
	}})

	for attempt := 1; attempt <= s.settings.MaxAttempts; attempt++ {
		legal := s.betting.LegalActions(gs)
		d, err := s.requestAction(ctx, gs.ID, p, legal)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("no decision, folding", "session", gs.ID, "player", p.ID, "err", err)
			s.autoFold(gs, p, err)
			return nil
		}

		if !funk.Contains(legal, d.Action) {
			err = fmt.Errorf("%w: %q not in %v", ErrInvalidAction, d.Action, legal)
		} else {
			err = s.betting.Apply(ctx, gs, p.ID, d)
		}
		if err == nil {
			s.notifier.Broadcast(ids, Event{Name: "action_taken", Data: map[string]any{
				"session": gs.ID,
				"player":  p.ID,
				"action":  d.Action,
				"amount":  gs.RoundBets[p.ID],
				"pot":     gs.Pot,
			}})
			return nil
		}
		if !IsRecoverable(err) {
			return err
		}

		s.logger.Debug("action rejected", "session", gs.ID, "player", p.ID, "attempt", attempt, "err", err)
		s.notifier.Send(p.ID, Event{Name: "action_rejected", Data: map[string]any{
			"session": gs.ID,
			"reason":  err.Error(),
			"attempt": attempt,
		}})
	}

	s.autoFold(gs, p, fmt.Errorf("%w: too many invalid actions", ErrInvalidAction))
	return nil
}

// requestAction bounds one prompt by the turn timeout, measured by the timebank.
func (s *Scheduler) requestAction(ctx context.Context, sessionID string, p table.Player, legal []Action) (Decision, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	timedOut := make(chan struct{})
	onTimeout := func(isCancelled bool) {
		if isCancelled {
			return
		}
		close(timedOut)
		cancel()
	}
	// onTimeout 非 nil，NewTask 不会失败
	_ = s.tb.NewTask(s.settings.TurnTimeout, onTimeout)
	defer s.tb.Cancel()

	d, err := s.prompter.RequestAction(reqCtx, sessionID, p, legal, s.settings.TurnTimeout)
	if err == nil {
		return d, nil
	}
	select {
	case <-timedOut:
		return Decision{}, ErrTimeout
	default:
	}
	if ctx.Err() != nil {
		return Decision{}, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return Decision{}, ErrTimeout
	}
	if !errors.Is(err, ErrUnreachable) {
		err = fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return Decision{}, err
}

func (s *Scheduler) autoFold(gs *table.GameState, p table.Player, reason error) {
	gs.Fold(p.ID)
	s.notifier.Broadcast(playerIDs(gs.Players), Event{Name: "player_folded", Data: map[string]any{
		"session": gs.ID,
		"player":  p.ID,
		"reason":  reason.Error(),
	}})
}
