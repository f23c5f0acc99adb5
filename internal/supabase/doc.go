// Package supabase はホスト型のBaaS（認証API + PostgREST）へのアダプタを提供する。
//
// AuthClientはBearerトークンを /auth/v1/user でユーザーに解決し、
// TaskStoreは /rest/v1/tasks に対してタスクの挿入と検索を行う。
// いずれもpkg/httpclientを通じて通信し、APIキーは全リクエストに付与する。
package supabase
