package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nao1215/taskgate/internal/config"
	"github.com/nao1215/taskgate/internal/pgstore"
	"github.com/nao1215/taskgate/internal/sqlitestore"
	"github.com/nao1215/taskgate/internal/supabase"
	"github.com/nao1215/taskgate/internal/task"
	"github.com/nao1215/taskgate/pkg/auth"
	"github.com/nao1215/taskgate/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
)

// rateLimitKeyPrefix はレート制限のRedisキーの接頭辞。
const rateLimitKeyPrefix = "taskgate:ratelimit:"

// NewFromConfig は設定に従って検証器とストアを組み立て、Serverを生成する。
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	verifier, err := NewVerifier(cfg)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closers := []func() error{closeStore}

	ids, err := task.NewIDGenerator()
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	opts := Options{
		Port:           cfg.Port,
		Verifier:       verifier,
		Tasks:          task.NewService(store, ids),
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
	}

	if cfg.RateLimitEnabled() {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			// 制限器は失敗時にリクエストを通すため起動は継続する
			log.Printf("[RateLimit] Redisへの疎通確認に失敗: addr=%s, error=%v", cfg.RedisAddr, err)
		}
		opts.Limiter = ratelimit.NewRedisLimiter(client, ratelimit.Config{
			RequestsPerWindow: cfg.RateLimitPerMinute,
			WindowSize:        time.Minute,
		}, rateLimitKeyPrefix)
		closers = append(closers, client.Close)
	}

	s := New(opts)
	s.closers = closers
	return s, nil
}

// NewVerifier はAUTH_MODEに応じたトークン検証器を返す。
func NewVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeSupabase:
		return supabase.NewAuthClient(supabaseConfig(cfg)), nil
	case config.AuthModeJWT:
		return auth.NewJWTVerifier(cfg.SupabaseJWTSecret), nil
	default:
		return nil, fmt.Errorf("未対応の認証方式です: %s", cfg.AuthMode)
	}
}

// OpenStore はSTORE_DRIVERに応じたタスクストアを開き、解放関数と共に返す。
// SQLiteはOpen時にマイグレーションを適用する。PostgreSQLのスキーマは migrate コマンドで作成する。
func OpenStore(ctx context.Context, cfg *config.Config) (task.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreSupabase:
		return supabase.NewTaskStore(supabaseConfig(cfg)), func() error { return nil }, nil
	case config.StoreSQLite:
		s, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StorePostgres:
		s, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("未対応のストアです: %s", cfg.StoreDriver)
	}
}

// supabaseConfig はホスト型APIの接続設定を組み立てる。
func supabaseConfig(cfg *config.Config) supabase.Config {
	return supabase.Config{
		URL:     cfg.SupabaseURL,
		Key:     cfg.SupabaseKey,
		Timeout: cfg.UpstreamTimeout,
	}
}
