// Package config は環境変数からゲートウェイの設定を読み込む。
//
// 接続先の認証情報にはデフォルト値を持たせず、必要な値が欠けていれば
// Loadがエラーを返す。呼び出し側はサーバーを起動せずに終了する。
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 認証方式。
const (
	AuthModeSupabase = "supabase"
	AuthModeJWT      = "jwt"
)

// ストアの種類。
const (
	StoreSupabase = "supabase"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// 設定キー。環境変数名と同じ。
const (
	KeySupabaseURL        = "SUPABASE_URL"
	KeySupabaseKey        = "SUPABASE_KEY"
	KeySupabaseJWTSecret  = "SUPABASE_JWT_SECRET"
	KeyPort               = "PORT"
	KeyAuthMode           = "AUTH_MODE"
	KeyStoreDriver        = "STORE_DRIVER"
	KeySQLitePath         = "SQLITE_PATH"
	KeyDatabaseURL        = "DATABASE_URL"
	KeyCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
	KeyTrustedProxies     = "TRUSTED_PROXIES"
	KeyRedisAddr          = "REDIS_ADDR"
	KeyRateLimitPerMinute = "RATE_LIMIT_PER_MINUTE"
	KeyUpstreamTimeout    = "UPSTREAM_TIMEOUT"
	KeyShutdownTimeout    = "SHUTDOWN_TIMEOUT"
)

// Config はゲートウェイの設定。
type Config struct {
	SupabaseURL       string
	SupabaseKey       string
	SupabaseJWTSecret string

	Port           string
	AuthMode       string
	StoreDriver    string
	SQLitePath     string
	DatabaseURL    string
	AllowedOrigins []string
	// TrustedProxies はX-Forwarded-Forを信頼するプロキシのIPまたはCIDR。
	// 空の場合はどのヘッダーも信頼せず接続元アドレスを使う。
	TrustedProxies []string

	RedisAddr          string
	RateLimitPerMinute int

	UpstreamTimeout time.Duration
	ShutdownTimeout time.Duration
}

// NewViper は環境変数を読み込みデフォルト値を設定したviperインスタンスを返す。
// CLIのフラグはこのインスタンスにBindPFlagで結び付ける。
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyAuthMode, AuthModeSupabase)
	v.SetDefault(KeyStoreDriver, StoreSupabase)
	v.SetDefault(KeySQLitePath, "taskgate.db")
	v.SetDefault(KeyCORSAllowedOrigins, "*")
	v.SetDefault(KeyRateLimitPerMinute, 120)
	v.SetDefault(KeyUpstreamTimeout, 30*time.Second)
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)

	// AutomaticEnvはデフォルトもバインドも無いキーを参照できないため明示する
	for _, key := range []string{KeySupabaseURL, KeySupabaseKey, KeySupabaseJWTSecret, KeyDatabaseURL, KeyRedisAddr, KeyTrustedProxies} {
		_ = v.BindEnv(key)
	}
	return v
}

// Load はvから設定を組み立てて検証する。
func Load(v *viper.Viper) (*Config, error) {
	cfg := Read(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read はvから設定を組み立てる。検証は行わない。
func Read(v *viper.Viper) *Config {
	return &Config{
		SupabaseURL:        strings.TrimSpace(v.GetString(KeySupabaseURL)),
		SupabaseKey:        strings.TrimSpace(v.GetString(KeySupabaseKey)),
		SupabaseJWTSecret:  v.GetString(KeySupabaseJWTSecret),
		Port:               v.GetString(KeyPort),
		AuthMode:           strings.ToLower(v.GetString(KeyAuthMode)),
		StoreDriver:        strings.ToLower(v.GetString(KeyStoreDriver)),
		SQLitePath:         v.GetString(KeySQLitePath),
		DatabaseURL:        v.GetString(KeyDatabaseURL),
		AllowedOrigins:     splitList(v.GetString(KeyCORSAllowedOrigins)),
		TrustedProxies:     splitList(v.GetString(KeyTrustedProxies)),
		RedisAddr:          v.GetString(KeyRedisAddr),
		RateLimitPerMinute: v.GetInt(KeyRateLimitPerMinute),
		UpstreamTimeout:    v.GetDuration(KeyUpstreamTimeout),
		ShutdownTimeout:    v.GetDuration(KeyShutdownTimeout),
	}
}

// Validate はサーバー起動に必要な設定値の組み合わせを検証する。
func (c *Config) Validate() error {
	var errs []error

	switch c.AuthMode {
	case AuthModeSupabase:
	case AuthModeJWT:
		if c.SupabaseJWTSecret == "" {
			errs = append(errs, fmt.Errorf("AUTH_MODE=jwt には %s が必要です", KeySupabaseJWTSecret))
		}
	default:
		errs = append(errs, fmt.Errorf("%s の値が不正です: %q", KeyAuthMode, c.AuthMode))
	}
	// ストアもホスト型の場合はValidateStoreで検証する
	if c.AuthMode == AuthModeSupabase && c.StoreDriver != StoreSupabase {
		errs = append(errs, c.validateSupabase()...)
	}

	errs = append(errs, c.ValidateStore())

	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s が設定されていません", KeyPort))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("%s は0以上である必要があります", KeyRateLimitPerMinute))
	}
	for _, p := range c.TrustedProxies {
		if !isIPOrCIDR(p) {
			errs = append(errs, fmt.Errorf("%s の値が不正です: %q", KeyTrustedProxies, p))
		}
	}

	return errors.Join(errs...)
}

// ValidateStore はタスクストアを開くのに必要な設定値だけを検証する。
// CLIのmigrateやtasksコマンドはサーバーを起動しないためこちらを使う。
func (c *Config) ValidateStore() error {
	var errs []error

	switch c.StoreDriver {
	case StoreSupabase:
		errs = append(errs, c.validateSupabase()...)
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("STORE_DRIVER=sqlite には %s が必要です", KeySQLitePath))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("STORE_DRIVER=postgres には %s が必要です", KeyDatabaseURL))
		}
	default:
		errs = append(errs, fmt.Errorf("%s の値が不正です: %q", KeyStoreDriver, c.StoreDriver))
	}

	return errors.Join(errs...)
}

// validateSupabase はホスト型APIの接続設定を検証する。
func (c *Config) validateSupabase() []error {
	var errs []error
	if c.SupabaseURL == "" {
		errs = append(errs, fmt.Errorf("%s が設定されていません", KeySupabaseURL))
	}
	if c.SupabaseKey == "" {
		errs = append(errs, fmt.Errorf("%s が設定されていません", KeySupabaseKey))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s は正の値である必要があります", KeyUpstreamTimeout))
	}
	return errs
}

// UsesSupabase はホスト型の認証APIまたはREST APIを使う設定かどうかを返す。
func (c *Config) UsesSupabase() bool {
	return c.AuthMode == AuthModeSupabase || c.StoreDriver == StoreSupabase
}

// RateLimitEnabled はレート制限を有効にするかどうかを返す。
func (c *Config) RateLimitEnabled() bool {
	return c.RedisAddr != "" && c.RateLimitPerMinute > 0
}

// splitList はカンマ区切りの文字列を空要素を除いたスライスに変換する。
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// isIPOrCIDR はsがIPアドレスまたはCIDR表記かどうかを返す。
func isIPOrCIDR(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(s)
	return err == nil
}
