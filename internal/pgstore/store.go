// Package pgstore はPostgreSQLに直接接続するtask.Storeの実装を提供する。
// ホスト型のREST APIを経由せず、同じtasksテーブルをpgxで操作する。
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nao1215/taskgate/internal/task"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// schema はtasksテーブルの定義。ホスト型データベースのテーブルと同じ列を持つ。
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id BIGSERIAL PRIMARY KEY,
    task_id TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL,
    user_email TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending',
    verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_created
    ON tasks(user_id, created_at DESC);
`

// Store はPostgreSQLのtasksテーブルを操作するtask.Store。
type Store struct {
	pool *pgxpool.Pool
}

// Open は接続プールを作成し、疎通を確認したStoreを返す。
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("接続プールの作成に失敗: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate はtasksテーブルが無ければ作成する。
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}

// Close は接続プールを閉じる。
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Insert はタスクを挿入し、created_atを含む挿入後の行を返す。
func (s *Store) Insert(ctx context.Context, t task.Task) (task.Task, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tasks (task_id, title, description, user_id, user_email, status, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING task_id, title, description, user_id, user_email, status, verified, created_at`,
		t.TaskID, t.Title, t.Description, t.UserID, t.UserEmail, t.Status, t.Verified,
	)

	var created task.Task
	err := row.Scan(&created.TaskID, &created.Title, &created.Description, &created.UserID,
		&created.UserEmail, &created.Status, &created.Verified, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return task.Task{}, fmt.Errorf("task_id=%s: %w", t.TaskID, task.ErrDuplicateTaskID)
		}
		return task.Task{}, fmt.Errorf("tasksへの挿入に失敗: %w", err)
	}
	return created, nil
}

// ListByUser はuserIDのタスクをcreated_atの降順で返す。
func (s *Store) ListByUser(ctx context.Context, userID string) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT task_id, title, description, user_id, user_email, status, verified, created_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("tasksの検索に失敗: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (task.Task, error) {
		var t task.Task
		err := r.Scan(&t.TaskID, &t.Title, &t.Description, &t.UserID, &t.UserEmail,
			&t.Status, &t.Verified, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("行の読み取りに失敗: %w", err)
	}
	return tasks, nil
}

// ListStatusByUser はuserIDのタスクのstatusとverifiedを返す。
func (s *Store) ListStatusByUser(ctx context.Context, userID string) ([]task.StatusRow, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, verified FROM tasks WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("tasksの検索に失敗: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (task.StatusRow, error) {
		var sr task.StatusRow
		err := r.Scan(&sr.Status, &sr.Verified)
		return sr, err
	})
	if err != nil {
		return nil, fmt.Errorf("行の読み取りに失敗: %w", err)
	}
	return out, nil
}
