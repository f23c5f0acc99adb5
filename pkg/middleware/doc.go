// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンによる認証ガード、リクエストID、パニックリカバリ、
// CORS設定、レート制限を含む。エラー時は全て {success:false, error} 形式の
// JSONエンベロープを返す。
package middleware
