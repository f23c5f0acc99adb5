package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/taskgate/internal/task"
	"github.com/nao1215/taskgate/pkg/httpclient"
)

const (
	// tasksPath はtasksテーブルのRESTエンドポイント。
	tasksPath = "/rest/v1/tasks"
	// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
	uniqueViolation = "23505"
)

// insertRow は挿入時に送信する列。created_atはデータベース側で設定する。
type insertRow struct {
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"user_id"`
	UserEmail   string `json:"user_email"`
	Status      string `json:"status"`
	Verified    bool   `json:"verified"`
}

// unzonedLayout はタイムゾーン無しのtimestamp列の書式。UTCとして扱う。
const unzonedLayout = "2006-01-02T15:04:05.999999"

// restTime はPostgRESTが返すtimestamptzとtimestampの両方を受け付ける時刻。
type restTime time.Time

// UnmarshalJSON はRFC3339形式を優先し、失敗した場合はタイムゾーン無しの形式で解釈する。
func (rt *restTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*rt = restTime{}
		return nil
	}
	s = strings.Trim(s, `"`)

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*rt = restTime(t)
		return nil
	}
	t, err := time.ParseInLocation(unzonedLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("created_atの形式が不正: %q", s)
	}
	*rt = restTime(t)
	return nil
}

// taskRow はtasksテーブルから返される行。
// レスポンスはtask.Taskの列に限定し、idなどそれ以外の列は捨てる。
type taskRow struct {
	TaskID      string   `json:"task_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	UserID      string   `json:"user_id"`
	UserEmail   string   `json:"user_email"`
	Status      string   `json:"status"`
	Verified    bool     `json:"verified"`
	CreatedAt   restTime `json:"created_at"`
}

func (r taskRow) toTask() task.Task {
	return task.Task{
		TaskID:      r.TaskID,
		Title:       r.Title,
		Description: r.Description,
		UserID:      r.UserID,
		UserEmail:   r.UserEmail,
		Status:      r.Status,
		Verified:    r.Verified,
		CreatedAt:   time.Time(r.CreatedAt),
	}
}

// TaskStore はPostgREST経由でtasksテーブルを操作するtask.Store。
type TaskStore struct {
	http *httpclient.Client
}

// NewTaskStore は新しいTaskStoreを生成する。
func NewTaskStore(cfg Config) *TaskStore {
	return &TaskStore{http: newHTTPClient(cfg)}
}

// Insert はタスクを1行挿入し、挿入された行を返す。
func (s *TaskStore) Insert(ctx context.Context, t task.Task) (task.Task, error) {
	body := []insertRow{{
		TaskID:      t.TaskID,
		Title:       t.Title,
		Description: t.Description,
		UserID:      t.UserID,
		UserEmail:   t.UserEmail,
		Status:      t.Status,
		Verified:    t.Verified,
	}}

	var rows []taskRow
	err := s.http.PostJSON(ctx, tasksPath, body, &rows,
		httpclient.WithRequestHeader("Prefer", "return=representation"),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return task.Task{}, fmt.Errorf("task_id=%s: %w", t.TaskID, task.ErrDuplicateTaskID)
		}
		return task.Task{}, fmt.Errorf("tasksへの挿入に失敗: %w", err)
	}
	if len(rows) != 1 {
		return task.Task{}, fmt.Errorf("挿入結果の行数が不正: got %d, want 1", len(rows))
	}
	return rows[0].toTask(), nil
}

// ListByUser はuserIDのタスクをcreated_atの降順で返す。
func (s *TaskStore) ListByUser(ctx context.Context, userID string) ([]task.Task, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")

	var rows []taskRow
	if err := s.http.GetJSON(ctx, tasksPath, &rows, httpclient.WithQuery(q)); err != nil {
		return nil, fmt.Errorf("tasksの検索に失敗: %w", err)
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toTask())
	}
	return tasks, nil
}

// ListStatusByUser はuserIDのタスクのstatusとverifiedだけを返す。
func (s *TaskStore) ListStatusByUser(ctx context.Context, userID string) ([]task.StatusRow, error) {
	q := url.Values{}
	q.Set("select", "status,verified")
	q.Set("user_id", "eq."+userID)

	var rows []task.StatusRow
	if err := s.http.GetJSON(ctx, tasksPath, &rows, httpclient.WithQuery(q)); err != nil {
		return nil, fmt.Errorf("tasksの検索に失敗: %w", err)
	}
	return rows, nil
}

// isUniqueViolation はPostgRESTのエラーが一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusConflict ||
		bytes.Contains(statusErr.Body, []byte(`"`+uniqueViolation+`"`))
}
