package server

import (
	"github.com/nao1215/taskgate/internal/task"
)

// timestampLayout はレスポンスのtimestampの書式（UTC、ミリ秒精度）。
const timestampLayout = "2006-01-02T15:04:05.000Z"

// serviceStatus はルートエンドポイントが返すサービス名。
const serviceStatus = "Task Manager API Running"

// endpoints はルートエンドポイントが返すエンドポイント一覧。
var endpoints = []string{
	"POST /generateTaskId",
	"POST /verifyTask",
	"GET /tasks (with auth)",
	"POST /tasks (with auth)",
	"GET /stats (with auth)",
	"GET /health",
}

// クライアントに返すメッセージ。
const (
	msgAuthorizationRequired = "Authorization token required"
	msgTaskIDGenerated       = "Task ID generated successfully"
	msgTaskCreated           = "Task created successfully"
	msgTaskIDRequired        = "Task ID is required"
	msgTitleRequired         = "Title is required"
	msgInvalidBody           = "Invalid request body"
	msgInvalidAuthToken      = "Invalid authentication token"
	msgFetchTasksFailed      = "Failed to fetch tasks"
	msgCreateFailed          = "Failed to create task"
	msgFetchStatsFailed      = "Failed to fetch stats"
	msgNotFound              = "Not found"
)

// errorResponse は失敗時のエンベロープ。
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// rootResponse は GET / のレスポンス。
type rootResponse struct {
	Success   bool     `json:"success"`
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"`
	Endpoints []string `json:"endpoints"`
}

// healthResponse は GET /health のレスポンス。
type healthResponse struct {
	Success   bool   `json:"success"`
	Healthy   bool   `json:"healthy"`
	Timestamp string `json:"timestamp"`
}

// generateTaskIDResponse は POST /generateTaskId のレスポンス。
type generateTaskIDResponse struct {
	Success   bool   `json:"success"`
	TaskID    string `json:"taskId"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// verifyTaskRequest は POST /verifyTask のリクエスト。
type verifyTaskRequest struct {
	TaskID    string `json:"taskId"`
	AuthToken string `json:"authToken"`
}

// verifyTaskResponse は POST /verifyTask のレスポンス。
type verifyTaskResponse struct {
	Success   bool   `json:"success"`
	TaskID    string `json:"taskId"`
	Verified  bool   `json:"verified"`
	Timestamp string `json:"timestamp"`
}

// createTaskRequest は POST /tasks のリクエスト。
type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// listTasksResponse は GET /tasks のレスポンス。
type listTasksResponse struct {
	Success bool        `json:"success"`
	Tasks   []task.Task `json:"tasks"`
	Count   int         `json:"count"`
}

// createTaskResponse は POST /tasks のレスポンス。
type createTaskResponse struct {
	Success bool      `json:"success"`
	Task    task.Task `json:"task"`
	Message string    `json:"message"`
}

// statsResponse は GET /stats のレスポンス。
type statsResponse struct {
	Success bool       `json:"success"`
	Stats   task.Stats `json:"stats"`
}
