package manager

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DrawPoker/internal/game/engine"
	"DrawPoker/internal/game/table"
	"DrawPoker/internal/ledger"
)

// autoPrompter 开局者每轮下最小注，其余人跟注，不换牌
type autoPrompter struct {
	block bool
}

func (a autoPrompter) RequestAction(ctx context.Context, _ string, _ table.Player, legal []engine.Action, _ time.Duration) (engine.Decision, error) {
	if a.block {
		<-ctx.Done()
		return engine.Decision{}, ctx.Err()
	}
	for _, act := range legal {
		if act == engine.ActionBet {
			return engine.Decision{Action: engine.ActionBet, Amount: 100}, nil
		}
	}
	return engine.Decision{Action: engine.ActionCall}, nil
}

func (a autoPrompter) RequestDiscard(context.Context, string, table.Player, table.Hand, time.Duration) ([]int, error) {
	return nil, nil
}

func newTestManager(p engine.Prompter, l ledger.Ledger) *GameManager {
	s := engine.DefaultSettings()
	s.MaxPlayers = 3
	s.TurnTimeout = time.Second
	s.ExchangeTimeout = time.Second
	return NewGameManager(engine.Deps{
		Ledger:   l,
		Prompter: p,
		Logger:   log.New(io.Discard),
		Settings: s,
	})
}

func player(id string) table.Player { return table.Player{ID: id, Handle: "@" + id} }

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}
}

// ✅ 创建 -> 加入 -> 开始 -> 结算后移除
func TestSessionLifecycle(t *testing.T) {
	l := ledger.NewMemoryLedger(1000)
	mgr := newTestManager(autoPrompter{}, l)

	var finished sync.WaitGroup
	finished.Add(1)
	mgr.OnFinished = func(*Session, *engine.Result, error) { finished.Done() }

	id, err := mgr.CreateSession("channel-1", "a")
	require.NoError(t, err)
	require.NoError(t, mgr.JoinSession(id, player("a")))
	require.NoError(t, mgr.JoinSession(id, player("b")))

	snap, err := mgr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "lobby", snap.Phase)
	assert.Len(t, snap.Players, 2)

	s, ok := mgr.Session(id)
	require.True(t, ok)
	require.NoError(t, mgr.StartSession(id, "a"))
	waitDone(t, s)
	finished.Wait()

	res, err := s.Outcome()
	require.NoError(t, err)
	assert.Equal(t, int64(400), res.Pot)
	assert.NotEmpty(t, res.Winners)
	assert.Equal(t, table.Closed, s.State.CurrentPhase())

	// 结束后移除，同一个 key 可以再开一局
	assert.Equal(t, 0, mgr.Count())
	_, ok = mgr.Lookup("channel-1")
	assert.False(t, ok)
	_, err = mgr.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	var total int64
	for _, pid := range []string{"a", "b"} {
		b, err := l.Balance(context.Background(), pid)
		require.NoError(t, err)
		total += b
	}
	assert.Equal(t, int64(2000), total)
}

func TestOneLiveSessionPerKey(t *testing.T) {
	mgr := newTestManager(autoPrompter{}, ledger.NewMemoryLedger(1000))

	id, err := mgr.CreateSession("k", "a")
	require.NoError(t, err)

	again, err := mgr.CreateSession("k", "b")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, id, again)

	got, ok := mgr.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestJoinRules(t *testing.T) {
	mgr := newTestManager(autoPrompter{block: true}, ledger.NewMemoryLedger(1000))
	id, err := mgr.CreateSession("k", "a")
	require.NoError(t, err)

	assert.ErrorIs(t, mgr.JoinSession("missing", player("a")), ErrSessionNotFound)
	require.NoError(t, mgr.JoinSession(id, player("a")))
	assert.ErrorIs(t, mgr.JoinSession(id, player("a")), ErrAlreadyJoined)
	require.NoError(t, mgr.JoinSession(id, player("b")))
	require.NoError(t, mgr.JoinSession(id, player("c")))
	assert.ErrorIs(t, mgr.JoinSession(id, player("d")), ErrSessionFull)

	require.NoError(t, mgr.StartSession(id, "a"))
	assert.ErrorIs(t, mgr.JoinSession(id, player("e")), ErrAlreadyStarted)

	require.NoError(t, mgr.AbandonSession(id, "a"))
}

func TestStartRules(t *testing.T) {
	mgr := newTestManager(autoPrompter{block: true}, ledger.NewMemoryLedger(1000))
	id, err := mgr.CreateSession("k", "a")
	require.NoError(t, err)
	require.NoError(t, mgr.JoinSession(id, player("a")))

	assert.ErrorIs(t, mgr.StartSession(id, "a"), ErrNotEnoughPlayers)
	require.NoError(t, mgr.JoinSession(id, player("b")))
	assert.ErrorIs(t, mgr.StartSession(id, "b"), ErrNotOwner)
	require.NoError(t, mgr.StartSession(id, "a"))
	assert.ErrorIs(t, mgr.StartSession(id, "a"), ErrAlreadyStarted)

	require.NoError(t, mgr.AbandonSession(id, "a"))
}

func TestAbandonRunningSession(t *testing.T) {
	mgr := newTestManager(autoPrompter{block: true}, ledger.NewMemoryLedger(1000))
	id, err := mgr.CreateSession("k", "a")
	require.NoError(t, err)
	require.NoError(t, mgr.JoinSession(id, player("a")))
	require.NoError(t, mgr.JoinSession(id, player("b")))
	s, _ := mgr.Session(id)

	require.NoError(t, mgr.StartSession(id, "a"))
	assert.ErrorIs(t, mgr.AbandonSession(id, "b"), ErrNotOwner)
	require.NoError(t, mgr.AbandonSession(id, "a"))
	waitDone(t, s)

	_, err = s.Outcome()
	assert.ErrorIs(t, err, ErrAbandoned)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, table.Closed, s.State.CurrentPhase())
	assert.Equal(t, 0, mgr.Count())
}

func TestAbandonLobby(t *testing.T) {
	mgr := newTestManager(autoPrompter{}, ledger.NewMemoryLedger(1000))
	id, err := mgr.CreateSession("k", "a")
	require.NoError(t, err)
	s, _ := mgr.Session(id)

	assert.ErrorIs(t, mgr.AbandonSession(id, "b"), ErrNotOwner)
	require.NoError(t, mgr.AbandonSession(id, "a"))
	waitDone(t, s)
	assert.Equal(t, table.Closed, s.State.CurrentPhase())
	_, err = s.Outcome()
	assert.ErrorIs(t, err, ErrAbandoned)
	assert.ErrorIs(t, mgr.AbandonSession(id, "a"), ErrSessionNotFound)
}

// ✅ 并发创建：每个 key 只会有一局
func TestConcurrentCreate(t *testing.T) {
	mgr := newTestManager(autoPrompter{}, ledger.NewMemoryLedger(1000))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := mgr.CreateSession(fmt.Sprintf("k%d", i%5), "owner"); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, created)
	assert.Equal(t, 5, mgr.Count())
}
