package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"DrawPoker/internal/game/engine"
	"DrawPoker/internal/game/table"
)

var (
	ErrSessionNotFound  = errors.New("manager: session not found")
	ErrAlreadyExists    = errors.New("manager: a session is already live for this key")
	ErrAlreadyStarted   = errors.New("manager: session already started")
	ErrAlreadyJoined    = errors.New("manager: player already joined")
	ErrSessionFull      = errors.New("manager: session is full")
	ErrNotOwner         = errors.New("manager: only the owner can do this")
	ErrNotEnoughPlayers = errors.New("manager: at least 2 players are required")
	ErrAbandoned        = errors.New("manager: session abandoned by owner")
)

// Session 一个频道（key）上的一局
type Session struct {
	ID    string
	Key   string
	State *table.GameState

	started   bool
	abandoned bool // owner 主动取消，受 GameManager.mu 保护
	cancel    context.CancelFunc
	done      chan struct{}
	result    *engine.Result
	err       error
}

// Done is closed once the engine has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Outcome is only meaningful after Done is closed.
func (s *Session) Outcome() (*engine.Result, error) { return s.result, s.err }

// GameManager 管理所有对局：key → 唯一存活的 session
type GameManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session // sessionID → session
	byKey    map[string]string   // key → sessionID
	deps     engine.Deps
	logger   *log.Logger

	// OnFinished 在 session 结束（含大厅阶段被放弃）并移除后调用（可为空）
	OnFinished func(s *Session, res *engine.Result, err error)
}

func NewGameManager(deps engine.Deps) *GameManager {
	deps = deps.WithDefaults()
	return &GameManager{
		sessions: make(map[string]*Session),
		byKey:    make(map[string]string),
		deps:     deps,
		logger:   deps.Logger.WithPrefix("manager"),
	}
}

// CreateSession opens a lobby on key. The owner still has to join to be dealt in.
func (m *GameManager) CreateSession(key, ownerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byKey[key]; ok {
		return id, ErrAlreadyExists
	}

	id := uuid.NewString()
	m.sessions[id] = &Session{
		ID:    id,
		Key:   key,
		State: table.NewGameState(id, ownerID),
		done:  make(chan struct{}),
	}
	m.byKey[key] = id

	m.logger.Info("session created", "session", id, "key", key, "owner", ownerID)
	return id, nil
}

func (m *GameManager) JoinSession(sessionID string, p table.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if s.started {
		return ErrAlreadyStarted
	}
	if s.State.HasPlayer(p.ID) {
		return ErrAlreadyJoined
	}
	if s.State.PlayerCount() >= m.deps.Settings.MaxPlayers {
		return ErrSessionFull
	}

	if err := s.State.AddPlayer(p); err != nil {
		switch {
		case errors.Is(err, table.ErrNotInLobby):
			return ErrAlreadyStarted
		case errors.Is(err, table.ErrPlayerExists):
			return ErrAlreadyJoined
		}
		return err
	}
	m.logger.Debug("player joined", "session", sessionID, "player", p.ID)
	return nil
}

// StartSession runs the engine on its own goroutine. The session is removed when it finishes.
func (m *GameManager) StartSession(sessionID, requesterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if s.State.OwnerID != requesterID {
		return ErrNotOwner
	}
	if s.started {
		return ErrAlreadyStarted
	}
	if n := s.State.PlayerCount(); n < 2 {
		return fmt.Errorf("%w: have %d", ErrNotEnoughPlayers, n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.started = true
	s.cancel = cancel
	eng := engine.NewEngine(s.State, m.deps)

	// 异步进入游戏流程
	go m.run(ctx, s, eng)

	m.logger.Info("session started", "session", sessionID, "players", s.State.PlayerCount())
	return nil
}

func (m *GameManager) run(ctx context.Context, s *Session, eng *engine.Engine) {
	defer s.cancel()

	res, err := eng.Run(ctx)

	m.mu.Lock()
	if s.abandoned && errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %w", ErrAbandoned, err)
	}
	s.result, s.err = res, err
	m.removeLocked(s)
	m.mu.Unlock()
	close(s.done)

	if m.OnFinished != nil {
		m.OnFinished(s, res, err)
	}
}

// AbandonSession drops a lobby or cancels a running round. Only the owner may abandon.
func (m *GameManager) AbandonSession(sessionID, requesterID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if s.State.OwnerID != requesterID {
		m.mu.Unlock()
		return ErrNotOwner
	}

	if s.started {
		// 引擎收到取消后自行 Abort 并移除
		s.abandoned = true
		m.mu.Unlock()
		s.cancel()
		return nil
	}

	s.State.Abort()
	s.err = ErrAbandoned
	m.removeLocked(s)
	m.mu.Unlock()

	close(s.done)
	m.logger.Info("session abandoned", "session", sessionID)
	if m.OnFinished != nil {
		m.OnFinished(s, nil, ErrAbandoned)
	}
	return nil
}

// Get returns the public view of a live session.
func (m *GameManager) Get(sessionID string) (table.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return table.Snapshot{}, ErrSessionNotFound
	}
	return s.State.Snapshot(), nil
}

// Lookup finds the live session bound to key.
func (m *GameManager) Lookup(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byKey[key]
	return id, ok
}

func (m *GameManager) Session(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

func (m *GameManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *GameManager) removeLocked(s *Session) {
	delete(m.sessions, s.ID)
	if m.byKey[s.Key] == s.ID {
		delete(m.byKey, s.Key)
	}
}
