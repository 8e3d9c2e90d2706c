package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// key 约定：
//
//	kv: poker:balance:{playerID} -> 整数余额
//
// 不存在的 key 先按初始余额落地，再扣减/入账，全部在 Lua 脚本里完成（原子）。
func balanceKey(playerID string) string {
	return fmt.Sprintf("poker:balance:%s", playerID)
}

// KEYS[1] = balanceKey, ARGV[1] = amount, ARGV[2] = initial
var debitScript = redis.NewScript(`
local bal = redis.call("GET", KEYS[1])
if not bal then
    bal = ARGV[2]
    redis.call("SET", KEYS[1], bal)
end
if tonumber(bal) < tonumber(ARGV[1]) then
    return -1
end
return redis.call("DECRBY", KEYS[1], ARGV[1])
`)

var creditScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
    redis.call("SET", KEYS[1], ARGV[2])
end
return redis.call("INCRBY", KEYS[1], ARGV[1])
`)

type RedisLedger struct {
	rdb     *redis.Client
	initial int64
}

func NewRedisLedger(rdb *redis.Client, initial int64) *RedisLedger {
	return &RedisLedger{rdb: rdb, initial: initial}
}

func (r *RedisLedger) Debit(ctx context.Context, playerID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	left, err := debitScript.Run(ctx, r.rdb, []string{balanceKey(playerID)}, amount, r.initial).Int64()
	if err != nil {
		return fmt.Errorf("ledger: debit %s: %w", playerID, err)
	}
	if left < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (r *RedisLedger) Credit(ctx context.Context, playerID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if err := creditScript.Run(ctx, r.rdb, []string{balanceKey(playerID)}, amount, r.initial).Err(); err != nil {
		return fmt.Errorf("ledger: credit %s: %w", playerID, err)
	}
	return nil
}

func (r *RedisLedger) Balance(ctx context.Context, playerID string) (int64, error) {
	v, err := r.rdb.Get(ctx, balanceKey(playerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return r.initial, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}
