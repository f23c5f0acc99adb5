package task

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/nao1215/taskgate/pkg/auth"
)

// maxCreateAttempts はtask_id重複時に採番し直す最大回数。
const maxCreateAttempts = 3

// Store はタスクの永続化先。
type Store interface {
	// Insert はタスクを1件挿入し、ストアが設定した値を含む行を返す。
	// task_idが重複した場合はErrDuplicateTaskIDをラップしたエラーを返す。
	Insert(ctx context.Context, t Task) (Task, error)
	// ListByUser はuserIDが所有するタスクをcreated_atの降順で返す。
	ListByUser(ctx context.Context, userID string) ([]Task, error)
	// ListStatusByUser はuserIDが所有するタスクの (status, verified) を返す。
	ListStatusByUser(ctx context.Context, userID string) ([]StatusRow, error)
}

// Service はタスクのユースケースを提供する。
type Service struct {
	store Store
	ids   *IDGenerator
}

// NewService は新しいServiceを生成する。
func NewService(store Store, ids *IDGenerator) *Service {
	return &Service{store: store, ids: ids}
}

// GenerateID は新しいタスクIDを採番する。
func (s *Service) GenerateID() string {
	return s.ids.New()
}

// Create はownerの所有するタスクを作成する。
// 入力が不正な場合はストアに一切アクセスせずにErrTitleRequiredを返す。
func (s *Service) Create(ctx context.Context, owner auth.Identity, in CreateInput) (Task, error) {
	if err := in.Validate(); err != nil {
		return Task{}, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		t := NewTask(s.ids.New(), owner, in)
		created, err := s.store.Insert(ctx, t)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrDuplicateTaskID) {
			return Task{}, fmt.Errorf("タスクの挿入に失敗: %w", err)
		}
		log.Printf("[Task] task_idが重複したため採番し直します: task_id=%s, attempt=%d", t.TaskID, attempt)
		lastErr = err
	}
	return Task{}, fmt.Errorf("タスクの挿入に%d回失敗: %w", maxCreateAttempts, lastErr)
}

// List はuserIDが所有するタスクを新しい順に返す。
func (s *Service) List(ctx context.Context, userID string) ([]Task, error) {
	tasks, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗: %w", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// Stats はuserIDが所有するタスクの統計を返す。
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	rows, err := s.store.ListStatusByUser(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("タスク統計の取得に失敗: %w", err)
	}
	return ComputeStats(rows), nil
}
