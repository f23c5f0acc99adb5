package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskgate/pkg/auth"
)

const (
	// contextKeyIdentity はGinコンテキストにIdentityを格納するキー。
	contextKeyIdentity = "identity"
	// bearerPrefix はAuthorizationヘッダーの接頭辞。
	bearerPrefix = "Bearer "
)

// エラーメッセージはクライアントに返す固定文言。
const (
	msgAuthorizationRequired = "Authorization token required"
	msgInvalidToken          = "Invalid or expired token"
)

// BearerAuth はAuthorizationヘッダーのBearerトークンをverifierで解決するGinミドルウェアを返す。
// 解決に成功した場合、コンテキストにIdentityを設定する。後続のハンドラはGetIdentityで取得する。
func BearerAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, found := strings.CutPrefix(c.GetHeader("Authorization"), bearerPrefix)
		if !found {
			abortWithError(c, http.StatusUnauthorized, msgAuthorizationRequired)
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil || identity.ID == "" {
			if err != nil && !errors.Is(err, auth.ErrInvalidToken) {
				log.Printf("[Auth] トークン検証に失敗: path=%s, error=%v", c.Request.URL.Path, err)
			}
			abortWithError(c, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		c.Set(contextKeyIdentity, identity)
		c.Next()
	}
}

// GetIdentity はGinコンテキストから認証済みIdentityを取得する。
// BearerAuthミドルウェアが事前に適用されている必要がある。
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

// abortWithError はエラーエンベロープを返してリクエストを中断する。
func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}
