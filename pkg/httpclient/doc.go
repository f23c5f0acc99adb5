// Package httpclient は外部サービスとJSONでやり取りするHTTPクライアントを提供する。
//
// 認証サービスやREST APIへの呼び出しで使用する。共通ヘッダー（APIキー等）の付与、
// リクエストIDの伝播、2xx以外のレスポンスのStatusErrorへの変換を統一する。
package httpclient
