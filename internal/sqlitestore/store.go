// Package sqlitestore はSQLiteを使ったtask.Storeの実装を提供する。
// ホスト型のデータベースを使わずにローカルで動かすための開発用ストア。
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/taskgate/internal/task"
	"github.com/nao1215/taskgate/pkg/migration"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout はcreated_atの保存形式。固定長のため文字列順が時刻順と一致する。
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store はSQLiteのtasksテーブルを操作するtask.Store。
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open はpathのSQLiteデータベースを開き、マイグレーションを適用したStoreを返す。
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert はタスクを挿入し、created_atを設定した行を返す。
func (s *Store) Insert(ctx context.Context, t task.Task) (task.Task, error) {
	t.CreatedAt = s.now().UTC().Truncate(time.Microsecond)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (task_id, title, description, user_id, user_email, status, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TaskID, t.Title, t.Description, t.UserID, t.UserEmail, t.Status, t.Verified,
		t.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return task.Task{}, fmt.Errorf("task_id=%s: %w", t.TaskID, task.ErrDuplicateTaskID)
		}
		return task.Task{}, fmt.Errorf("tasksへの挿入に失敗: %w", err)
	}
	return t, nil
}

// ListByUser はuserIDのタスクをcreated_atの降順で返す。
func (s *Store) ListByUser(ctx context.Context, userID string) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, title, description, user_id, user_email, status, verified, created_at
		FROM tasks
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("tasksの検索に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		var (
			t         task.Task
			createdAt string
		)
		if err := rows.Scan(&t.TaskID, &t.Title, &t.Description, &t.UserID, &t.UserEmail,
			&t.Status, &t.Verified, &createdAt); err != nil {
			return nil, fmt.Errorf("行の読み取りに失敗: %w", err)
		}
		if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("created_atの解析に失敗: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListStatusByUser はuserIDのタスクのstatusとverifiedを返す。
func (s *Store) ListStatusByUser(ctx context.Context, userID string) ([]task.StatusRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, verified FROM tasks WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("tasksの検索に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []task.StatusRow
	for rows.Next() {
		var r task.StatusRow
		if err := rows.Scan(&r.Status, &r.Verified); err != nil {
			return nil, fmt.Errorf("行の読み取りに失敗: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
