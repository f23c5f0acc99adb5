// Package ratelimit はRedisを使った固定ウィンドウ方式のレート制限を提供する。
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result はレート制限の判定結果。
type Result struct {
	// Allowed はリクエストを許可するかどうか。
	Allowed bool
	// Limit はウィンドウあたりの上限。
	Limit int
	// Remaining は現在のウィンドウで残っているリクエスト数。
	Remaining int
	// RetryAfter は拒否された場合に次のウィンドウまで待つべき時間。
	RetryAfter time.Duration
}

// Limiter はキー単位でリクエストの許可を判定する。
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Config はレート制限の設定。
type Config struct {
	// RequestsPerWindow はウィンドウあたりの最大リクエスト数。
	RequestsPerWindow int
	// WindowSize はウィンドウの長さ。
	WindowSize time.Duration
}

// fixedWindowScript はカウンタの加算と有効期限の設定を原子的に行う。
// 戻り値は {現在のカウント, 残りTTL(ミリ秒)}。
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// RedisLimiter はRedisのカウンタで固定ウィンドウのレート制限を行うLimiter。
type RedisLimiter struct {
	client *redis.Client
	config Config
	prefix string
}

// NewRedisLimiter は新しいRedisLimiterを生成する。
// Redisクライアントのライフサイクルは呼び出し側で管理する。
func NewRedisLimiter(client *redis.Client, config Config, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		config: config,
		prefix: prefix,
	}
}

// Allow はkeyに対するリクエストを1件数え、上限内であれば許可する。
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	raw, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key},
		l.config.WindowSize.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("レート制限スクリプトの実行に失敗: %w", err)
	}
	if len(raw) != 2 {
		return Result{}, fmt.Errorf("レート制限スクリプトの戻り値が不正: %v", raw)
	}

	count, ttlMs := int(raw[0]), raw[1]
	res := Result{
		Allowed: count <= l.config.RequestsPerWindow,
		Limit:   l.config.RequestsPerWindow,
	}
	if res.Allowed {
		res.Remaining = l.config.RequestsPerWindow - count
	} else if ttlMs > 0 {
		res.RetryAfter = time.Duration(ttlMs) * time.Millisecond
	}
	return res, nil
}
