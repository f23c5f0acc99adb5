package server

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskgate/internal/task"
	"github.com/nao1215/taskgate/pkg/auth"
	"github.com/nao1215/taskgate/pkg/middleware"
)

// handleRoot はサービス情報とエンドポイント一覧を返すハンドラを返す。
func (s *Server) handleRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, rootResponse{
			Success:   true,
			Status:    serviceStatus,
			Timestamp: s.timestamp(),
			Endpoints: endpoints,
		})
	}
}

// handleHealth はヘルスチェックのハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, healthResponse{
			Success:   true,
			Healthy:   true,
			Timestamp: s.timestamp(),
		})
	}
}

// handleGenerateTaskID は新しいタスクIDを採番するハンドラを返す。
func (s *Server) handleGenerateTaskID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, generateTaskIDResponse{
			Success:   true,
			TaskID:    s.tasks.GenerateID(),
			Timestamp: s.timestamp(),
			Message:   msgTaskIDGenerated,
		})
	}
}

// handleVerifyTask はタスクを検証済みとして応答するハンドラを返す。
// authTokenが指定された場合のみトークンを検証する。
func (s *Server) handleVerifyTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyTaskRequest
		if !bindJSON(c, &req) {
			return
		}
		if req.TaskID == "" {
			respondError(c, http.StatusBadRequest, msgTaskIDRequired)
			return
		}

		if req.AuthToken != "" {
			identity, err := s.verifier.Verify(c.Request.Context(), req.AuthToken)
			if err != nil || identity.ID == "" {
				if err != nil && !errors.Is(err, auth.ErrInvalidToken) {
					logUpstreamError(c, "authTokenの検証", err)
				}
				respondError(c, http.StatusUnauthorized, msgInvalidAuthToken)
				return
			}
		}

		c.JSON(http.StatusOK, verifyTaskResponse{
			Success:   true,
			TaskID:    req.TaskID,
			Verified:  true,
			Timestamp: s.timestamp(),
		})
	}
}

// handleListTasks は認証済みユーザーのタスク一覧を返すハンドラを返す。
func (s *Server) handleListTasks() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentity(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, msgAuthorizationRequired)
			return
		}

		tasks, err := s.tasks.List(c.Request.Context(), identity.ID)
		if err != nil {
			logUpstreamError(c, "タスク一覧の取得", err)
			respondError(c, http.StatusInternalServerError, msgFetchTasksFailed)
			return
		}

		c.JSON(http.StatusOK, listTasksResponse{
			Success: true,
			Tasks:   tasks,
			Count:   len(tasks),
		})
	}
}

// handleCreateTask は認証済みユーザーのタスクを作成するハンドラを返す。
func (s *Server) handleCreateTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentity(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, msgAuthorizationRequired)
			return
		}

		var req createTaskRequest
		if !bindJSON(c, &req) {
			return
		}

		created, err := s.tasks.Create(c.Request.Context(), identity, task.CreateInput{
			Title:       req.Title,
			Description: req.Description,
		})
		if err != nil {
			if errors.Is(err, task.ErrTitleRequired) {
				respondError(c, http.StatusBadRequest, msgTitleRequired)
				return
			}
			logUpstreamError(c, "タスクの作成", err)
			respondError(c, http.StatusInternalServerError, msgCreateFailed)
			return
		}

		log.Printf("[Gateway] タスクを作成: task_id=%s, user_id=%s", created.TaskID, created.UserID)
		c.JSON(http.StatusOK, createTaskResponse{
			Success: true,
			Task:    created,
			Message: msgTaskCreated,
		})
	}
}

// handleStats は認証済みユーザーのタスク統計を返すハンドラを返す。
func (s *Server) handleStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentity(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, msgAuthorizationRequired)
			return
		}

		stats, err := s.tasks.Stats(c.Request.Context(), identity.ID)
		if err != nil {
			logUpstreamError(c, "タスク統計の取得", err)
			respondError(c, http.StatusInternalServerError, msgFetchStatsFailed)
			return
		}

		c.JSON(http.StatusOK, statsResponse{
			Success: true,
			Stats:   stats,
		})
	}
}

// bindJSON はリクエストボディをdstにデコードする。
// 空のボディは全フィールドが未指定として扱う。
// 不正なJSONの場合は400を返してfalseを返す。
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}
