// Package task はタスクのドメインモデルとユースケースを提供する。
//
// タスクIDの採番、作成時の入力検証、ユーザー単位の一覧取得と統計集計を担当する。
// 永続化はStoreインターフェースを通じて外部（ホスト型REST API、SQLite、PostgreSQL）に委譲し、
// このパッケージ自体は状態を持たない。
package task
