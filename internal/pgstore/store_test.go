package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/nao1215/taskgate/internal/task"
)

// newTestStore はTASKGATE_TEST_DATABASE_URLのデータベースに接続する。
// 環境変数が無い場合はテストをスキップする。
func newTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TASKGATE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TASKGATE_TEST_DATABASE_URLが未設定のためスキップ")
	}

	ctx := context.Background()
	s, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open()でエラーが発生: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate()でエラーが発生: %v", err)
	}
	return s
}

// TestStore はPostgreSQLストアの一連の操作を検証する。
// ユーザーIDはテストごとに一意にして他のテストのデータと混ざらないようにする。
func TestStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := "pgstore-test-" + uuid.NewString()
	other := "pgstore-test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = s.pool.Exec(context.Background(), `DELETE FROM tasks WHERE user_id = ANY($1)`, []string{userID, other})
	})

	prefix := "TASK-" + uuid.NewString()[:8]
	inputs := []task.Task{
		{TaskID: prefix + "-1", Title: "first", UserID: userID, UserEmail: "a@example.com", Status: task.StatusPending},
		{TaskID: prefix + "-2", Title: "other", UserID: other, Status: task.StatusPending},
		{TaskID: prefix + "-3", Title: "second", UserID: userID, UserEmail: "a@example.com", Status: task.StatusCompleted, Verified: true},
	}
	for _, in := range inputs {
		created, err := s.Insert(ctx, in)
		if err != nil {
			t.Fatalf("Insert()でエラーが発生: %v", err)
		}
		if created.CreatedAt.IsZero() {
			t.Error("CreatedAtが設定されていない")
		}
	}

	if _, err := s.Insert(ctx, inputs[0]); !errors.Is(err, task.ErrDuplicateTaskID) {
		t.Errorf("重複挿入のerr = %v, want ErrDuplicateTaskID", err)
	}

	tasks, err := s.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser()でエラーが発生: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "second" || tasks[1].Title != "first" {
		t.Errorf("ListByUser() = %+v, want [second first]", tasks)
	}

	rows, err := s.ListStatusByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListStatusByUser()でエラーが発生: %v", err)
	}
	want := task.Stats{Total: 2, Pending: 1, Completed: 1, Verified: 1}
	if got := task.ComputeStats(rows); got != want {
		t.Errorf("ComputeStats() = %+v, want %+v", got, want)
	}
}
