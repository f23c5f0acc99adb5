// Package auth はBearerトークンからユーザーIdentityを解決する仕組みを提供する。
//
// 外部の認証サービスへ問い合わせる実装と、アクセストークン（HS256署名のJWT）を
// ローカルで検証する実装が共通のVerifierインターフェースを満たす。
package auth
