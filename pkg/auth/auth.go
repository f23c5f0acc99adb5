package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken はトークンが無効または期限切れであることを表す。
var ErrInvalidToken = errors.New("トークンが無効または期限切れです")

// Identity はトークンから解決された認証済みユーザー。
type Identity struct {
	// ID はユーザーの一意識別子。タスクの所有者キーとして使用する。
	ID string `json:"id"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
}

// Verifier はBearerトークンをIdentityに解決する。
// トークンが無効な場合はErrInvalidTokenをラップしたエラーを返す。
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// VerifierFunc は関数をVerifierとして扱うためのアダプタ。
type VerifierFunc func(ctx context.Context, token string) (Identity, error)

// Verify はf(ctx, token)を呼び出す。
func (f VerifierFunc) Verify(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}
