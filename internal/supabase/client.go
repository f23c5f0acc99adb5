package supabase

import (
	"strings"
	"time"

	"github.com/nao1215/taskgate/pkg/httpclient"
)

// Config は接続設定。
type Config struct {
	// URL はプロジェクトのベースURL（例: https://xyz.supabase.co）。
	URL string
	// Key はAPIキー（anonまたはservice_role）。
	Key string
	// Timeout は1リクエストあたりのタイムアウト。0の場合はhttpclientのデフォルト。
	Timeout time.Duration
}

// newHTTPClient はAPIキーを共通ヘッダーに持つhttpclient.Clientを生成する。
// Authorizationのデフォルト値もAPIキーとし、呼び出し側で必要に応じて上書きする。
func newHTTPClient(cfg Config) *httpclient.Client {
	opts := []httpclient.Option{
		httpclient.WithHeader("apikey", cfg.Key),
		httpclient.WithHeader("Authorization", "Bearer "+cfg.Key),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(cfg.Timeout))
	}
	return httpclient.New(strings.TrimRight(cfg.URL, "/"), opts...)
}
