package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"DrawPoker/internal/game/dealer"
	"DrawPoker/internal/game/engine"
	"DrawPoker/internal/game/table"
	"DrawPoker/internal/utils"
)

// Bridge 把 engine 的 Prompter / Notifier 接到 Hub 上：
// 请求带 request id 发出，回复经 Hub.OnIncoming 回到 HandleIncoming
type Bridge struct {
	hub    HubInterface
	logger *log.Logger

	mu      sync.Mutex
	pending map[string]*pendingReply // requestID -> waiter
}

type pendingReply struct {
	playerID string
	event    string // 期望的回复事件
	ch       chan replyPayload
}

var (
	_ engine.Prompter = (*Bridge)(nil)
	_ engine.Notifier = (*Bridge)(nil)
)

func NewBridge(hub HubInterface) *Bridge {
	return &Bridge{
		hub:     hub,
		logger:  utils.Logger("bridge"),
		pending: make(map[string]*pendingReply),
	}
}

func (b *Bridge) Broadcast(playerIDs []string, ev engine.Event) {
	b.hub.BroadcastToPlayers(playerIDs, OutgoingMessage{Event: ev.Name, Data: ev.Data})
}

func (b *Bridge) Send(playerID string, ev engine.Event) {
	b.hub.SendToPlayer(playerID, OutgoingMessage{Event: ev.Name, Data: ev.Data})
}

func (b *Bridge) RequestAction(ctx context.Context, sessionID string, p table.Player, legal []engine.Action, timeout time.Duration) (engine.Decision, error) {
	r, err := b.request(ctx, p.ID, EventActionRequest, EventActionReply, map[string]any{
		"session": sessionID,
		"legal":   legal,
		"timeout": timeout.Milliseconds(),
	})
	if err != nil {
		return engine.Decision{}, err
	}
	return engine.Decision{Action: engine.Action(r.Action), Amount: r.Amount}, nil
}

// RequestDiscard accepts either a positions array or chat-style text ("1 3 5").
// Text that does not parse is passed on as an invalid position so the engine re-prompts.
func (b *Bridge) RequestDiscard(ctx context.Context, sessionID string, p table.Player, hand table.Hand, timeout time.Duration) ([]int, error) {
	r, err := b.request(ctx, p.ID, EventDiscardRequest, EventDiscardReply, map[string]any{
		"session": sessionID,
		"hand":    hand.Codes(),
		"timeout": timeout.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	if len(r.Positions) == 0 && r.Text != "" {
		sel, err := engine.ParseSelectionText(r.Text, dealer.HandSize)
		if err != nil {
			return []int{-1}, nil
		}
		return sel, nil
	}
	return r.Positions, nil
}

func (b *Bridge) request(ctx context.Context, playerID, event, replyEvent string, data map[string]any) (replyPayload, error) {
	if _, ok := b.hub.ClientByPlayer(playerID); !ok {
		return replyPayload{}, engine.ErrUnreachable
	}

	id := uuid.NewString()
	w := &pendingReply{playerID: playerID, event: replyEvent, ch: make(chan replyPayload, 1)}
	b.mu.Lock()
	b.pending[id] = w
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	data["request"] = id
	b.hub.SendToPlayer(playerID, OutgoingMessage{Event: event, Data: data})

	select {
	case r := <-w.ch:
		return r, nil
	case <-ctx.Done():
		return replyPayload{}, ctx.Err()
	}
}

// HandleIncoming consumes replies to outstanding requests. It reports false for anything else.
// It runs on the hub goroutine and never blocks.
func (b *Bridge) HandleIncoming(msg IncomingMessage) bool {
	if msg.Event != EventActionReply && msg.Event != EventDiscardReply {
		return false
	}

	var r replyPayload
	raw, err := json.Marshal(msg.Data)
	if err == nil {
		err = json.Unmarshal(raw, &r)
	}
	if err != nil || r.Request == "" {
		b.reject(msg.From, "malformed reply")
		return true
	}

	b.mu.Lock()
	w, ok := b.pending[r.Request]
	b.mu.Unlock()

	switch {
	case !ok:
		b.reject(msg.From, "unknown or expired request")
	case w.playerID != msg.From || w.event != msg.Event:
		b.logger.Warn("reply from wrong player", "request", r.Request, "from", msg.From)
		b.reject(msg.From, "not your request")
	default:
		select {
		case w.ch <- r:
		default:
			// 已经收到过回复
		}
	}
	return true
}

// reject 在 hub goroutine 上调用，SendToPlayer 会等 hub 自己，所以另起 goroutine
func (b *Bridge) reject(playerID, reason string) {
	b.logger.Debug("reply rejected", "player", playerID, "reason", reason)
	go b.hub.SendToPlayer(playerID, OutgoingMessage{Event: EventError, Data: map[string]any{"reason": reason}})
}
