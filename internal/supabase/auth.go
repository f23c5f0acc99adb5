package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nao1215/taskgate/pkg/auth"
	"github.com/nao1215/taskgate/pkg/httpclient"
)

// userPath はアクセストークンからユーザーを取得するエンドポイント。
const userPath = "/auth/v1/user"

// user は /auth/v1/user のレスポンスのうち使用するフィールド。
type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthClient は認証APIに問い合わせてトークンを検証するauth.Verifier。
type AuthClient struct {
	http *httpclient.Client
}

// NewAuthClient は新しいAuthClientを生成する。
func NewAuthClient(cfg Config) *AuthClient {
	return &AuthClient{http: newHTTPClient(cfg)}
}

// Verify はtokenの持ち主を認証APIに問い合わせる。
// 認証APIが4xxを返した場合はauth.ErrInvalidTokenをラップしたエラーを返す。
func (a *AuthClient) Verify(ctx context.Context, token string) (auth.Identity, error) {
	if token == "" {
		return auth.Identity{}, auth.ErrInvalidToken
	}

	var u user
	if err := a.http.GetJSON(ctx, userPath, &u, httpclient.WithBearerToken(token)); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) &&
			statusErr.StatusCode >= http.StatusBadRequest && statusErr.StatusCode < http.StatusInternalServerError {
			return auth.Identity{}, fmt.Errorf("%w: status=%d", auth.ErrInvalidToken, statusErr.StatusCode)
		}
		return auth.Identity{}, fmt.Errorf("ユーザー情報の取得に失敗: %w", err)
	}
	if u.ID == "" {
		return auth.Identity{}, fmt.Errorf("%w: ユーザーが存在しません", auth.ErrInvalidToken)
	}

	return auth.Identity{ID: u.ID, Email: u.Email}, nil
}
