package task

import (
	"testing"

	"github.com/nao1215/taskgate/pkg/auth"
)

// TestComputeStats はComputeStatsを検証する。
func TestComputeStats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rows []StatusRow
		want Stats
	}{
		{
			name: "タスクが無い場合は全て0",
			rows: nil,
			want: Stats{},
		},
		{
			name: "pendingとcompletedが1件ずつ",
			rows: []StatusRow{
				{Status: "pending", Verified: false},
				{Status: "completed", Verified: true},
			},
			want: Stats{Total: 2, Pending: 1, Completed: 1, Verified: 1},
		},
		{
			name: "未知のステータスはtotalにのみ数える",
			rows: []StatusRow{
				{Status: "in_progress", Verified: true},
				{Status: "archived"},
				{Status: "pending"},
			},
			want: Stats{Total: 3, Pending: 1, Completed: 0, Verified: 1},
		},
		{
			name: "ステータスの大文字小文字は区別する",
			rows: []StatusRow{{Status: "Pending"}, {Status: "COMPLETED"}},
			want: Stats{Total: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ComputeStats(tt.rows); got != tt.want {
				t.Errorf("ComputeStats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestNewTask はNewTaskの初期値を検証する。
func TestNewTask(t *testing.T) {
	t.Parallel()

	owner := auth.Identity{ID: "user-1", Email: "user1@example.com"}
	got := NewTask("TASK-1-ABCDEFG", owner, CreateInput{Title: "Buy milk", Description: "2L"})

	want := Task{
		TaskID:      "TASK-1-ABCDEFG",
		Title:       "Buy milk",
		Description: "2L",
		UserID:      "user-1",
		UserEmail:   "user1@example.com",
		Status:      StatusPending,
		Verified:    false,
	}
	if got != want {
		t.Errorf("NewTask() = %+v, want %+v", got, want)
	}
}

// TestCreateInputValidate はCreateInput.Validateを検証する。
func TestCreateInputValidate(t *testing.T) {
	t.Parallel()

	if err := (CreateInput{}).Validate(); err != ErrTitleRequired {
		t.Errorf("空タイトルの検証結果 = %v, want ErrTitleRequired", err)
	}
	if err := (CreateInput{Title: "x"}).Validate(); err != nil {
		t.Errorf("タイトルありの検証結果 = %v, want nil", err)
	}
}
