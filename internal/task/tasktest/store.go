// Package tasktest はtask.Storeのテスト用インメモリ実装を提供する。
package tasktest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nao1215/taskgate/internal/task"
)

// Store はインメモリのtask.Store。呼び出し回数を記録する。
type Store struct {
	mu    sync.Mutex
	tasks []task.Task
	clock time.Time

	// InsertCalls はInsertの呼び出し回数。
	InsertCalls int
	// Err が設定されている場合、全ての操作がこのエラーを返す。
	Err error
	// DuplicateFirst は最初のN回のInsertをtask_id重複として失敗させる。
	DuplicateFirst int
}

// NewStore は空のStoreを生成する。
func NewStore() *Store {
	return &Store{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Seed はタスクを直接追加する。CreatedAtが空の場合は挿入順に時刻を割り当てる。
func (s *Store) Seed(tasks ...task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = s.tick()
		}
		s.tasks = append(s.tasks, t)
	}
}

// Tasks は保持している全タスクのコピーを返す。
func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]task.Task(nil), s.tasks...)
}

// tick は単調増加する作成日時を返す。呼び出し側でロックを保持すること。
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// Insert はタスクを追加する。
func (s *Store) Insert(_ context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.InsertCalls++
	if s.Err != nil {
		return task.Task{}, s.Err
	}
	if s.InsertCalls <= s.DuplicateFirst {
		return task.Task{}, fmt.Errorf("insert %s: %w", t.TaskID, task.ErrDuplicateTaskID)
	}
	for _, existing := range s.tasks {
		if existing.TaskID == t.TaskID {
			return task.Task{}, fmt.Errorf("insert %s: %w", t.TaskID, task.ErrDuplicateTaskID)
		}
	}

	t.CreatedAt = s.tick()
	s.tasks = append(s.tasks, t)
	return t, nil
}

// ListByUser はuserIDのタスクをcreated_atの降順で返す。
func (s *Store) ListByUser(_ context.Context, userID string) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	var out []task.Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListStatusByUser はuserIDのタスクの (status, verified) を返す。
func (s *Store) ListStatusByUser(_ context.Context, userID string) ([]task.StatusRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	var out []task.StatusRow
	for _, t := range s.tasks {
		if t.UserID == userID {
			out = append(out, task.StatusRow{Status: t.Status, Verified: t.Verified})
		}
	}
	return out, nil
}
