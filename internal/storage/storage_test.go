package storage

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb, err := NewRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer rdb.Close()
	assert.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())

	mr.Close()
	_, err = NewRedis(context.Background(), mr.Addr(), "", 0)
	assert.Error(t, err)
}

func TestNewPostgres(t *testing.T) {
	dsn := os.Getenv("POKER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POKER_TEST_POSTGRES_DSN not set")
	}
	db, err := NewPostgres(context.Background(), dsn)
	require.NoError(t, err)
	defer db.Close()
}
