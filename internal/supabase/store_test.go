package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nao1215/taskgate/internal/task"
)

// capturedRequest はPostgRESTモックが受け取ったリクエスト。
type capturedRequest struct {
	method string
	path   string
	query  map[string]string
	header http.Header
	body   []byte
}

// newFakeRESTServer はhandlerで応答し、最後のリクエストを記録するPostgRESTモックを生成する。
func newFakeRESTServer(t *testing.T, captured *capturedRequest, status int, respBody string) *TaskStore {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = map[string]string{}
		for k := range r.URL.Query() {
			captured.query[k] = r.URL.Query().Get(k)
		}
		captured.header = r.Header.Clone()
		captured.body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(ts.Close)

	return NewTaskStore(Config{URL: ts.URL, Key: testKey, Timeout: 5 * time.Second})
}

// TestTaskStoreInsert はTaskStore.Insertを検証する。
func TestTaskStoreInsert(t *testing.T) {
	t.Parallel()

	newTask := task.Task{
		TaskID:    "TASK-1700000000000-ABCDEFG",
		Title:     "Buy milk",
		UserID:    "user-1",
		UserEmail: "user1@example.com",
		Status:    task.StatusPending,
	}

	t.Run("1行を挿入して返された行をデコードすること", func(t *testing.T) {
		t.Parallel()

		var captured capturedRequest
		store := newFakeRESTServer(t, &captured, http.StatusCreated, `[{
			"id": 42,
			"task_id": "TASK-1700000000000-ABCDEFG",
			"title": "Buy milk",
			"description": "",
			"user_id": "user-1",
			"user_email": "user1@example.com",
			"status": "pending",
			"verified": false,
			"created_at": "2025-01-02T03:04:05.123456+00:00"
		}]`)

		got, err := store.Insert(context.Background(), newTask)
		if err != nil {
			t.Fatalf("Insert()でエラーが発生: %v", err)
		}

		if captured.method != http.MethodPost || captured.path != "/rest/v1/tasks" {
			t.Errorf("リクエスト = %s %s, want POST /rest/v1/tasks", captured.method, captured.path)
		}
		if got := captured.header.Get("Prefer"); got != "return=representation" {
			t.Errorf("Prefer = %q, want %q", got, "return=representation")
		}
		if got := captured.header.Get("apikey"); got != testKey {
			t.Errorf("apikey = %q, want %q", got, testKey)
		}

		var sent []map[string]any
		if err := json.Unmarshal(captured.body, &sent); err != nil {
			t.Fatalf("送信ボディのパースに失敗: %v", err)
		}
		if len(sent) != 1 {
			t.Fatalf("送信行数 = %d, want 1", len(sent))
		}
		if _, ok := sent[0]["created_at"]; ok {
			t.Error("created_atはデータベース側で設定するため送信すべきではない")
		}
		if sent[0]["status"] != "pending" || sent[0]["verified"] != false {
			t.Errorf("送信行 = %v, want status=pending verified=false", sent[0])
		}

		if got.TaskID != newTask.TaskID {
			t.Errorf("TaskID = %q, want %q", got.TaskID, newTask.TaskID)
		}
		wantCreated := time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC)
		if !got.CreatedAt.Equal(wantCreated) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, wantCreated)
		}
	})

	t.Run("挿入結果のタイムゾーン無しのcreated_atをデコードすること", func(t *testing.T) {
		t.Parallel()

		var captured capturedRequest
		store := newFakeRESTServer(t, &captured, http.StatusCreated,
			`[{"id":1,"task_id":"TASK-1700000000000-ABCDEFG","title":"Buy milk","user_id":"user-1","status":"pending","verified":false,"created_at":"2024-05-01T10:00:00.123456"}]`)

		got, err := store.Insert(context.Background(), newTask)
		if err != nil {
			t.Fatalf("Insert()でエラーが発生: %v", err)
		}
		if want := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC); !got.CreatedAt.Equal(want) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want)
		}
	})

	t.Run("409の場合にErrDuplicateTaskIDが返ること", func(t *testing.T) {
		t.Parallel()

		var captured capturedRequest
		store := newFakeRESTServer(t, &captured, http.StatusConflict,
			`{"code":"23505","message":"duplicate key value violates unique constraint \"tasks_task_id_key\""}`)

		_, err := store.Insert(context.Background(), newTask)
		if !errors.Is(err, task.ErrDuplicateTaskID) {
			t.Errorf("err = %v, want ErrDuplicateTaskID", err)
		}
	})

	t.Run("その他のエラーはErrDuplicateTaskIDにならないこと", func(t *testing.T) {
		t.Parallel()

		var captured capturedRequest
		store := newFakeRESTServer(t, &captured, http.StatusBadRequest,
			`{"code":"PGRST204","message":"Could not find the 'title' column"}`)

		_, err := store.Insert(context.Background(), newTask)
		if err == nil {
			t.Fatal("Insert()がエラーを返すべきだが、nilが返った")
		}
		if errors.Is(err, task.ErrDuplicateTaskID) {
			t.Errorf("err = %v, ErrDuplicateTaskIDであるべきではない", err)
		}
	})

	t.Run("返された行が1行でない場合にエラーになること", func(t *testing.T) {
		t.Parallel()

		var captured capturedRequest
		store := newFakeRESTServer(t, &captured, http.StatusCreated, `[]`)

		if _, err := store.Insert(context.Background(), newTask); err == nil {
			t.Fatal("Insert()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestTaskStoreListByUser はTaskStore.ListByUserを検証する。
func TestTaskStoreListByUser(t *testing.T) {
	t.Parallel()

	t.Run("user_idで絞り込みcreated_atの降順を指定すること", func(t *testing.T) {
		t.Parallel()

		var captured capturedRequest
		store := newFakeRESTServer(t, &captured, http.StatusOK, `[
			{"task_id":"TASK-2-BBBBBBB","title":"new","user_id":"user-1","status":"pending","verified":false,"created_at":"2025-01-02T00:00:00+00:00"},
			{"task_id":"TASK-1-AAAAAAA","title":"old","user_id":"user-1","status":"completed","verified":true,"created_at":"2025-01-01T00:00:00+00:00"}
		]`)

		got, err := store.ListByUser(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("ListByUser()でエラーが発生: %v", err)
		}

		if captured.method != http.MethodGet || captured.path != "/rest/v1/tasks" {
			t.Errorf("リクエスト = %s %s, want GET /rest/v1/tasks", captured.method, captured.path)
		}
		wantQuery := map[string]string{"select": "*", "user_id": "eq.user-1", "order": "created_at.desc"}
		for k, v := range wantQuery {
			if captured.query[k] != v {
				t.Errorf("クエリ %s = %q, want %q", k, captured.query[k], v)
			}
		}
		if len(got) != 2 || got[0].TaskID != "TASK-2-BBBBBBB" || !got[1].Verified {
			t.Errorf("ListByUser() = %+v", got)
		}
	})

	t.Run("タイムゾーン無しのcreated_atをUTCとしてデコードすること", func(t *testing.T) {
		t.Parallel()

		var captured capturedRequest
		store := newFakeRESTServer(t, &captured, http.StatusOK, `[
			{"id":7,"task_id":"TASK-3-CCCCCCC","title":"plain","user_id":"user-1","status":"pending","verified":false,"created_at":"2024-05-01T10:00:00.123456"},
			{"id":6,"task_id":"TASK-4-DDDDDDD","title":"no fraction","user_id":"user-1","status":"pending","verified":false,"created_at":"2024-05-01T09:00:00"}
		]`)

		got, err := store.ListByUser(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("ListByUser()でエラーが発生: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("件数 = %d, want 2", len(got))
		}
		want := []time.Time{
			time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC),
			time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		}
		for i, w := range want {
			if !got[i].CreatedAt.Equal(w) {
				t.Errorf("got[%d].CreatedAt = %v, want %v", i, got[i].CreatedAt, w)
			}
		}
	})

	t.Run("解釈できないcreated_atはエラーになること", func(t *testing.T) {
		t.Parallel()

		var captured capturedRequest
		store := newFakeRESTServer(t, &captured, http.StatusOK,
			`[{"task_id":"TASK-5-EEEEEEE","title":"bad","user_id":"user-1","created_at":"yesterday"}]`)

		if _, err := store.ListByUser(context.Background(), "user-1"); err == nil {
			t.Fatal("ListByUser()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("RESTエラーがそのまま返ること", func(t *testing.T) {
		t.Parallel()

		var captured capturedRequest
		store := newFakeRESTServer(t, &captured, http.StatusInternalServerError, `{"message":"boom"}`)

		if _, err := store.ListByUser(context.Background(), "user-1"); err == nil {
			t.Fatal("ListByUser()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestTaskStoreListStatusByUser はTaskStore.ListStatusByUserを検証する。
func TestTaskStoreListStatusByUser(t *testing.T) {
	t.Parallel()

	var captured capturedRequest
	store := newFakeRESTServer(t, &captured, http.StatusOK,
		`[{"status":"pending","verified":false},{"status":"completed","verified":true}]`)

	got, err := store.ListStatusByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListStatusByUser()でエラーが発生: %v", err)
	}

	if captured.query["select"] != "status,verified" {
		t.Errorf("select = %q, want %q", captured.query["select"], "status,verified")
	}
	if captured.query["user_id"] != "eq.user-1" {
		t.Errorf("user_id = %q, want %q", captured.query["user_id"], "eq.user-1")
	}
	want := []task.StatusRow{{Status: "pending"}, {Status: "completed", Verified: true}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ListStatusByUser() = %+v, want %+v", got, want)
	}
}
