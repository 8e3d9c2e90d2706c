package lobby

import (
	"context"
	"sync"
	"time"
)

type memRepo struct {
	mu      sync.Mutex
	players map[string]string   // playerID -> sessionID
	records map[string][]Record // key -> 新的在前
}

func NewMemoryRepo() Repo {
	return &memRepo{
		players: make(map[string]string),
		records: make(map[string][]Record),
	}
}

// 简单忽略 TTL，内存版仅供测试和单机
func (m *memRepo) ClaimPlayerSession(_ context.Context, playerID, sessionID string, _ time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.players[playerID]
	if ok {
		return cur, false, nil
	}
	m.players[playerID] = sessionID
	return sessionID, true, nil
}

func (m *memRepo) PlayerSession(_ context.Context, playerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[playerID], nil
}

func (m *memRepo) ClearPlayerSession(_ context.Context, playerID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.players[playerID] == sessionID {
		delete(m.players, playerID)
	}
	return nil
}

func (m *memRepo) SaveRecord(_ context.Context, rec Record, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]Record{rec}, m.records[rec.Key]...)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	m.records[rec.Key] = list
	return nil
}

func (m *memRepo) Recent(_ context.Context, key string, n int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.records[key]
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return append([]Record(nil), list...), nil
}
