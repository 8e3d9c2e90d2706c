package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS poker_balances (
    player_id TEXT PRIMARY KEY,
    balance   BIGINT NOT NULL CHECK (balance >= 0)
)`

// PostgresLedger 以条件 UPDATE 实现先检查后扣减
type PostgresLedger struct {
	db      *sql.DB
	initial int64
}

func NewPostgresLedger(db *sql.DB, initial int64) *PostgresLedger {
	return &PostgresLedger{db: db, initial: initial}
}

// Migrate creates the balances table if needed.
func (p *PostgresLedger) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *PostgresLedger) ensure(ctx context.Context, playerID string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO poker_balances (player_id, balance) VALUES ($1, $2) ON CONFLICT (player_id) DO NOTHING`,
		playerID, p.initial)
	return err
}

func (p *PostgresLedger) Debit(ctx context.Context, playerID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if err := p.ensure(ctx, playerID); err != nil {
		return fmt.Errorf("ledger: debit %s: %w", playerID, err)
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE poker_balances SET balance = balance - $2 WHERE player_id = $1 AND balance >= $2`,
		playerID, amount)
	if err != nil {
		return fmt.Errorf("ledger: debit %s: %w", playerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (p *PostgresLedger) Credit(ctx context.Context, playerID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO poker_balances (player_id, balance) VALUES ($1, $2)
		 ON CONFLICT (player_id) DO UPDATE SET balance = poker_balances.balance + $3`,
		playerID, p.initial+amount, amount)
	if err != nil {
		return fmt.Errorf("ledger: credit %s: %w", playerID, err)
	}
	return nil
}

func (p *PostgresLedger) Balance(ctx context.Context, playerID string) (int64, error) {
	var b int64
	err := p.db.QueryRowContext(ctx, `SELECT balance FROM poker_balances WHERE player_id = $1`, playerID).Scan(&b)
	if err == sql.ErrNoRows {
		return p.initial, nil
	}
	if err != nil {
		return 0, err
	}
	return b, nil
}
