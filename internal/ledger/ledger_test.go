package ledger

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 每种实现跑同一套用例
func runLedgerSuite(t *testing.T, l Ledger) {
	ctx := context.Background()

	t.Run("initial balance", func(t *testing.T) {
		b, err := l.Balance(ctx, "fresh")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), b)
	})

	t.Run("debit and credit", func(t *testing.T) {
		require.NoError(t, l.Debit(ctx, "alice", 300))
		require.NoError(t, l.Credit(ctx, "alice", 50))
		b, err := l.Balance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(750), b)
	})

	t.Run("insufficient funds leaves balance unchanged", func(t *testing.T) {
		err := l.Debit(ctx, "bob", 1001)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		b, err := l.Balance(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), b)
	})

	t.Run("exact balance can be debited", func(t *testing.T) {
		require.NoError(t, l.Debit(ctx, "carol", 1000))
		assert.ErrorIs(t, l.Debit(ctx, "carol", 1), ErrInsufficientFunds)
	})

	t.Run("credit for unknown player starts from initial", func(t *testing.T) {
		require.NoError(t, l.Credit(ctx, "dave", 200))
		b, err := l.Balance(ctx, "dave")
		require.NoError(t, err)
		assert.Equal(t, int64(1200), b)
	})

	t.Run("non-positive amounts rejected", func(t *testing.T) {
		assert.ErrorIs(t, l.Debit(ctx, "erin", 0), ErrInvalidAmount)
		assert.ErrorIs(t, l.Credit(ctx, "erin", -5), ErrInvalidAmount)
	})

	// ✅ 并发扣款不会扣成负数
	t.Run("concurrent debits never go negative", func(t *testing.T) {
		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := l.Debit(ctx, "frank", 100); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, ok)
		b, err := l.Balance(ctx, "frank")
		require.NoError(t, err)
		assert.Equal(t, int64(0), b)
	})
}

func TestMemoryLedger(t *testing.T) {
	runLedgerSuite(t, NewMemoryLedger(1000))
}

func TestMemoryLedgerSetBalance(t *testing.T) {
	l := NewMemoryLedger(1000)
	l.SetBalance("zed", 50)
	assert.ErrorIs(t, l.Debit(context.Background(), "zed", 100), ErrInsufficientFunds)
}

// ---------- Redis（miniredis）实现测试 ----------
func TestRedisLedger(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	runLedgerSuite(t, NewRedisLedger(rdb, 1000))

	// 余额落在 poker:balance:{id}
	v, err := mr.Get("poker:balance:alice")
	require.NoError(t, err)
	assert.Equal(t, "750", v)
}

// Postgres 需要真实数据库：设置 POKER_TEST_POSTGRES_DSN 后运行
func TestPostgresLedger(t *testing.T) {
	dsn := os.Getenv("POKER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POKER_TEST_POSTGRES_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	l := NewPostgresLedger(db, 1000)
	require.NoError(t, l.Migrate(context.Background()))
	_, err = db.Exec(`TRUNCATE poker_balances`)
	require.NoError(t, err)

	runLedgerSuite(t, l)
}
