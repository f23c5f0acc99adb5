package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskgate/internal/task"
	"github.com/nao1215/taskgate/pkg/auth"
	"github.com/nao1215/taskgate/pkg/middleware"
	"github.com/nao1215/taskgate/pkg/ratelimit"
)

// readHeaderTimeout はリクエストヘッダーの読み取りタイムアウト。
const readHeaderTimeout = 10 * time.Second

// Options はServerの依存関係。
type Options struct {
	// Port はリッスンポート。
	Port string
	// Verifier はBearerトークンとauthTokenを検証する。
	Verifier auth.Verifier
	// Tasks はタスクのユースケース。
	Tasks *task.Service
	// AllowedOrigins はCORSで許可するオリジン。"*"で全て許可する。
	AllowedOrigins []string
	// Limiter が設定されている場合、クライアントIP単位でレート制限を行う。
	Limiter ratelimit.Limiter
	// TrustedProxies はX-Forwarded-Forを信頼するプロキシ。nilの場合は接続元アドレスをクライアントIPとする。
	TrustedProxies []string
}

// Server はタスクAPIゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpServer はGraceful Shutdownのためのhttp.Server。
	httpServer *http.Server
	// verifier はトークン検証器。
	verifier auth.Verifier
	// tasks はタスクのユースケース。
	tasks *task.Service
	// closers はShutdown時に解放するリソース。
	closers []func() error
	// now はtimestampの生成に使う時計。
	now func() time.Time
}

// New はoptsからServerを生成する。
func New(opts Options) *Server {
	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		log.Printf("[Gateway] 信頼するプロキシの設定が不正なためX-Forwarded-Forを無視します: %v", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.Limiter != nil {
		router.Use(middleware.RateLimit(opts.Limiter))
	}

	s := &Server{
		router:   router,
		verifier: opts.Verifier,
		tasks:    opts.Tasks,
		now:      time.Now,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.setupRoutes()

	return s
}

// Handler はルーティング済みのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr はリッスンアドレスを返す。
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run はHTTPサーバーを起動する。Shutdownで停止した場合はnilを返す。
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown は処理中のリクエストの完了を待ってHTTPサーバーを停止し、リソースを解放する。
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.Close())
}

// Close はストアやRedisなどのリソースを解放する。
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証不要のエンドポイント
	s.router.GET("/", s.handleRoot())
	s.router.GET("/health", s.handleHealth())
	s.router.POST("/generateTaskId", s.handleGenerateTaskID())
	// authTokenは任意のためガードを通さない
	s.router.POST("/verifyTask", s.handleVerifyTask())

	// 認証必須のエンドポイント
	api := s.router.Group("/")
	api.Use(middleware.BearerAuth(s.verifier))
	{
		api.GET("/tasks", s.handleListTasks())
		api.POST("/tasks", s.handleCreateTask())
		api.GET("/stats", s.handleStats())
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Success: false, Error: msgNotFound})
	})
}

// timestamp は現在時刻をレスポンス用の書式で返す。
func (s *Server) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

// respondError はエラーエンベロープを返す。
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{Success: false, Error: message})
}

// logUpstreamError は外部サービスの失敗をリクエストIDと共に記録する。
// 詳細はクライアントに返さない。
func logUpstreamError(c *gin.Context, op string, err error) {
	log.Printf("[Gateway] %sに失敗: request_id=%s, path=%s, error=%v",
		op, middleware.GetRequestID(c), c.Request.URL.Path, err)
}
