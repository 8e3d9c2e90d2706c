package ledger

import (
	"context"
	"sync"
)

// MemoryLedger 内存版，测试和单机部署用
type MemoryLedger struct {
	mu       sync.Mutex
	initial  int64
	balances map[string]int64
}

func NewMemoryLedger(initial int64) *MemoryLedger {
	return &MemoryLedger{
		initial:  initial,
		balances: make(map[string]int64),
	}
}

func (m *MemoryLedger) balance(playerID string) int64 {
	b, ok := m.balances[playerID]
	if !ok {
		b = m.initial
		m.balances[playerID] = b
	}
	return b
}

func (m *MemoryLedger) Debit(ctx context.Context, playerID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.balance(playerID)
	if b < amount {
		return ErrInsufficientFunds
	}
	m.balances[playerID] = b - amount
	return nil
}

func (m *MemoryLedger) Credit(ctx context.Context, playerID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[playerID] = m.balance(playerID) + amount
	return nil
}

func (m *MemoryLedger) Balance(ctx context.Context, playerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance(playerID), nil
}

// SetBalance overrides a player's balance.
func (m *MemoryLedger) SetBalance(playerID string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[playerID] = amount
}
