package task

import (
	"errors"
	"time"

	"github.com/nao1215/taskgate/pkg/auth"
)

// タスクのステータス。ストア側では任意の文字列を許容する。
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

var (
	// ErrTitleRequired はタイトルが空の場合のエラー。
	ErrTitleRequired = errors.New("タイトルは必須です")
	// ErrDuplicateTaskID はストアが既に同じtask_idを持っている場合のエラー。
	ErrDuplicateTaskID = errors.New("task_idが重複しています")
)

// Task はユーザーが作成したタスク。
type Task struct {
	// TaskID はゲートウェイが採番する一意な識別子（TASK-<ミリ秒>-<7文字>）。
	TaskID string `json:"task_id"`
	// Title はタスクのタイトル。
	Title string `json:"title"`
	// Description はタスクの説明。未指定時は空文字列。
	Description string `json:"description"`
	// UserID は作成者のユーザーID。
	UserID string `json:"user_id"`
	// UserEmail は作成者のメールアドレス。
	UserEmail string `json:"user_email"`
	// Status はタスクのステータス。
	Status string `json:"status"`
	// Verified は検証済みかどうか。
	Verified bool `json:"verified"`
	// CreatedAt はストアが設定する作成日時。
	CreatedAt time.Time `json:"created_at"`
}

// CreateInput はタスク作成の入力。
type CreateInput struct {
	Title       string
	Description string
}

// Validate は入力を検証する。
func (in CreateInput) Validate() error {
	if in.Title == "" {
		return ErrTitleRequired
	}
	return nil
}

// NewTask はIdentityの所有するタスクを組み立てる。
// ステータスはpending、verifiedはfalseで初期化される。
func NewTask(taskID string, owner auth.Identity, in CreateInput) Task {
	return Task{
		TaskID:      taskID,
		Title:       in.Title,
		Description: in.Description,
		UserID:      owner.ID,
		UserEmail:   owner.Email,
		Status:      StatusPending,
		Verified:    false,
	}
}

// StatusRow は統計集計用に取得する (status, verified) の組。
type StatusRow struct {
	Status   string `json:"status"`
	Verified bool   `json:"verified"`
}

// Stats はユーザー単位のタスク統計。
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Verified  int `json:"verified"`
}

// ComputeStats はStatusRowの一覧から統計を集計する。
// pending/completed以外のステータスはtotalにのみ数える。
func ComputeStats(rows []StatusRow) Stats {
	s := Stats{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case StatusPending:
			s.Pending++
		case StatusCompleted:
			s.Completed++
		}
		if r.Verified {
			s.Verified++
		}
	}
	return s
}
