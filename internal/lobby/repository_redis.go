package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	rdb *redis.Client
}

func NewRedisRepo(rdb *redis.Client) Repo {
	return &redisRepo{rdb: rdb}
}

// key 约定：
//
//	kv  : lobby:player:{playerID}   -> sessionID（带 TTL）
//	list: lobby:history:{key}       -> JSON(Record)，LPUSH，新的在前
func playerKey(id string) string {
	return fmt.Sprintf("lobby:player:%s", id)
}
func historyKey(key string) string {
	return fmt.Sprintf("lobby:history:%s", key)
}

// KEYS[1] = playerKey, ARGV[1] = sessionID
var clearIfEqual = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// KEYS[1] = playerKey, ARGV[1] = sessionID, ARGV[2] = ttl(ms, 0 表示不过期)
// 返回 {holder, fresh}
var claimIfFree = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur and cur ~= ARGV[1] then
    return {cur, 0}
end
local ttl = tonumber(ARGV[2])
if ttl > 0 then
    redis.call("SET", KEYS[1], ARGV[1], "PX", ttl)
else
    redis.call("SET", KEYS[1], ARGV[1])
end
if cur then
    return {ARGV[1], 0}
end
return {ARGV[1], 1}
`)

func (r *redisRepo) ClaimPlayerSession(ctx context.Context, playerID, sessionID string, ttl time.Duration) (string, bool, error) {
	res, err := claimIfFree.Run(ctx, r.rdb, []string{playerKey(playerID)}, sessionID, ttl.Milliseconds()).Slice()
	if err != nil {
		return "", false, err
	}
	if len(res) != 2 {
		return "", false, fmt.Errorf("lobby: unexpected claim reply %v", res)
	}
	holder, _ := res[0].(string)
	fresh, _ := res[1].(int64)
	return holder, fresh == 1, nil
}

func (r *redisRepo) PlayerSession(ctx context.Context, playerID string) (string, error) {
	val, err := r.rdb.Get(ctx, playerKey(playerID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *redisRepo) ClearPlayerSession(ctx context.Context, playerID, sessionID string) error {
	return clearIfEqual.Run(ctx, r.rdb, []string{playerKey(playerID)}, sessionID).Err()
}

func (r *redisRepo) SaveRecord(ctx context.Context, rec Record, limit int) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := historyKey(rec.Key)
	p := r.rdb.TxPipeline()
	p.LPush(ctx, key, data)
	if limit > 0 {
		p.LTrim(ctx, key, 0, int64(limit-1))
	}
	_, err = p.Exec(ctx)
	return err
}

func (r *redisRepo) Recent(ctx context.Context, key string, n int) ([]Record, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	raw, err := r.rdb.LRange(ctx, historyKey(key), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(raw))
	for _, s := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("lobby: decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
