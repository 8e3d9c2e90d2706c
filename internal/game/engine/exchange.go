package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/weedbox/syncsaga"

	"DrawPoker/internal/game/dealer"
	"DrawPoker/internal/game/table"
)

// Exchange runs the draw phase. Players answer concurrently; the phase ends when all have
// answered or the exchange timeout passes, whichever is first.
type Exchange struct {
	prompter Prompter
	notifier Notifier
	settings Settings
	logger   *log.Logger
}

func NewExchange(p Prompter, n Notifier, s Settings, logger *log.Logger) *Exchange {
	return &Exchange{prompter: p, notifier: n, settings: s, logger: logger}
}

// Run returns only fatal errors (deck exhaustion or a cancelled parent context).
// A player who times out or answers badly keeps their hand.
func (e *Exchange) Run(ctx context.Context, gs *table.GameState, deck *dealer.Deck) error {
	active := gs.ActivePlayers()
	if len(active) == 0 {
		return nil
	}

	exCtx, cancel := context.WithTimeout(ctx, e.settings.ExchangeTimeout)
	defer cancel()

	var (
		once     sync.Once
		done     = make(chan struct{})
		errMu    sync.Mutex
		firstErr error
	)
	rg := syncsaga.NewReadyGroup(
		syncsaga.WithCompletedCallback(func(rg *syncsaga.ReadyGroup) {
			once.Do(func() { close(done) })
		}),
	)
	for i := range active {
		rg.Add(int64(i), false)
	}
	rg.Start()
	defer rg.Stop()

	for i, p := range active {
		go func(idx int64, p table.Player) {
			defer rg.Ready(idx)
			if err := e.exchangeOne(exCtx, gs, deck, p); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				cancel()
			}
		}(int64(i), p)
	}

	// Prompter 必须在 exCtx 结束时返回，超时的玩家保留原手牌
	<-done

	errMu.Lock()
	defer errMu.Unlock()
	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (e *Exchange) exchangeOne(ctx context.Context, gs *table.GameState, deck *dealer.Deck, p table.Player) error {
	hand, ok := gs.Hand(p.ID)
	if !ok {
		return nil
	}

	for attempt := 1; attempt <= e.settings.MaxAttempts; attempt++ {
		sel, err := e.prompter.RequestDiscard(ctx, gs.ID, p, hand, e.settings.ExchangeTimeout)
		if err != nil {
			e.logger.Debug("no discard reply, keeping hand", "session", gs.ID, "player", p.ID, "err", err)
			return nil
		}
		positions, err := ParseSelection(sel, e.settings.MaxDiscards)
		if err != nil {
			e.notifier.Send(p.ID, Event{Name: "discard_rejected", Data: map[string]any{
				"session": gs.ID,
				"reason":  err.Error(),
				"attempt": attempt,
			}})
			continue
		}
		if len(positions) == 0 {
			e.announce(gs, p, 0)
			return nil
		}

		newHand, discarded, err := deck.Redraw(hand, positions)
		if err != nil {
			if errors.Is(err, dealer.ErrEmptyDeck) {
				return err
			}
			return fmt.Errorf("engine: redraw for %s: %w", p.ID, err)
		}
		gs.SetHand(p.ID, newHand)
		gs.Discard(discarded...)

		e.notifier.Send(p.ID, Event{Name: "hand_updated", Data: map[string]any{
			"session": gs.ID,
			"hand":    newHand.Codes(),
		}})
		e.announce(gs, p, len(positions))
		return nil
	}
	return nil
}

func (e *Exchange) announce(gs *table.GameState, p table.Player, n int) {
	e.notifier.Broadcast(playerIDs(gs.Players), Event{Name: "cards_exchanged", Data: map[string]any{
		"session": gs.ID,
		"player":  p.ID,
		"count":   n,
	}})
}

// ParseSelection validates 1-based discard positions. Empty or [0] means keep all cards.
func ParseSelection(sel []int, maxDiscards int) ([]int, error) {
	if len(sel) == 0 || (len(sel) == 1 && sel[0] == 0) {
		return nil, nil
	}
	if len(sel) > maxDiscards {
		return nil, fmt.Errorf("%w: at most %d cards", ErrInvalidInput, maxDiscards)
	}
	seen := make(map[int]bool, len(sel))
	out := make([]int, 0, len(sel))
	for _, pos := range sel {
		if pos < 1 || pos > dealer.HandSize {
			return nil, fmt.Errorf("%w: position %d", ErrInvalidInput, pos)
		}
		if seen[pos] {
			return nil, fmt.Errorf("%w: duplicate position %d", ErrInvalidInput, pos)
		}
		seen[pos] = true
		out = append(out, pos)
	}
	sort.Ints(out)
	return out, nil
}

// ParseSelectionText accepts chat-style input such as "1 3 5", "2,4" or "0".
func ParseSelectionText(s string, maxDiscards int) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	sel := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a position", ErrInvalidInput, f)
		}
		sel = append(sel, n)
	}
	return ParseSelection(sel, maxDiscards)
}
