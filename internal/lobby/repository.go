package lobby

import (
	"context"
	"time"
)

// Repo 大厅的持久化：玩家当前所在局 + 已结束对局的归档
type Repo interface {
	// ClaimPlayerSession 原子占位：玩家没有占位或已指向 sessionID 时写入并刷新 ttl。
	// holder 为占位后玩家所在的局（不等于 sessionID 即占位失败），fresh 表示本次新占的位。
	// ttl 防止异常退出后长期占用
	ClaimPlayerSession(ctx context.Context, playerID, sessionID string, ttl time.Duration) (holder string, fresh bool, err error)
	// PlayerSession 返回玩家所在的局，没有则为空串
	PlayerSession(ctx context.Context, playerID string) (string, error)
	// ClearPlayerSession 仅当玩家仍指向 sessionID 时删除
	ClearPlayerSession(ctx context.Context, playerID, sessionID string) error
	// SaveRecord 归档，每个 key 只保留最近 limit 条
	SaveRecord(ctx context.Context, rec Record, limit int) error
	// Recent 最近的 n 条归档，新的在前
	Recent(ctx context.Context, key string, n int) ([]Record, error)
}
