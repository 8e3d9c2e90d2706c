package ledger

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	ErrInvalidAmount     = errors.New("ledger: amount must be positive")
)

// Ledger 外部余额存储的扣款/入账契约。
// Debit 必须是原子的先检查后扣减：余额不足时返回 ErrInsufficientFunds 且不做任何修改。
type Ledger interface {
	// Debit 扣款
	Debit(ctx context.Context, playerID string, amount int64) error
	// Credit 入账
	Credit(ctx context.Context, playerID string, amount int64) error
	// Balance 查询余额；从未出现过的玩家返回初始余额
	Balance(ctx context.Context, playerID string) (int64, error)
}

func checkAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return nil
}
