// Package server はタスクAPIゲートウェイのHTTPサーバーを提供する。
//
// タスクIDの採番のみをローカルで行い、トークンの検証とタスクの永続化は
// 外部の認証APIとデータストアに委譲する。ゲートウェイ自身は状態を持たない。
// 認証が必要なルートはmiddleware.BearerAuthを通過した後にハンドラが実行される。
package server
