package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// authenticatedAudience はログイン済みユーザーのアクセストークンに付与されるaud。
const authenticatedAudience = "authenticated"

// Claims はアクセストークンのクレーム。
// subにユーザーID、emailにメールアドレスが入る。
type Claims struct {
	jwt.RegisteredClaims
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// Role はデータベースロール（通常は"authenticated"）。
	Role string `json:"role"`
}

// JWTVerifier はHS256で署名されたアクセストークンをローカルで検証するVerifier。
// 認証サービスへの往復が不要になるため、JWTシークレットを共有できる環境で使う。
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier は新しいJWTVerifierを生成する。
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify はトークンの署名・有効期限・audienceを検証し、Identityを返す。
func (v *JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(authenticatedAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: subが空です", ErrInvalidToken)
	}

	return Identity{ID: claims.Subject, Email: claims.Email}, nil
}

// GenerateJWT はユーザー情報からアクセストークンを生成する。
// 開発用CLIとテストから呼び出す。
func GenerateJWT(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{authenticatedAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "taskgate",
		},
		Email: email,
		Role:  authenticatedAudience,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}
