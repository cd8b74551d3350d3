package tracker

import (
	"context"
	"errors"
	"log"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nao1215/jobtracker/internal/notification"
	"github.com/nao1215/jobtracker/internal/store"
	"github.com/nao1215/jobtracker/pkg/middleware"
)

// Appender は通知をOutboxへ追記する。
type Appender interface {
	Append(ctx context.Context, e notification.Entry) (int64, error)
}

// Options はServerの設定。
type Options struct {
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string
	// TokenTTL は発行するトークンの有効期間。
	TokenTTL time.Duration
	// CORSOrigins は許可するオリジン。"*" を含む場合はすべて許可する。
	CORSOrigins []string
	// Heartbeat はストリームのping送信間隔。
	Heartbeat time.Duration
	// PollInterval はヘルスチェックで報告するポーリング間隔。
	PollInterval time.Duration
}

// Server は応募管理APIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// store はデータストア。
	store *store.Store
	// outbox は通知の追記先。
	outbox Appender
	// hub はストリームのセッション管理。
	hub *notification.Hub
	// gateway はSSEストリームのハンドラ。
	gateway *notification.Gateway
	// opts はサーバー設定。
	opts Options
}

// NewServer は新しいServerを生成する。
func NewServer(st *store.Store, hub *notification.Hub, opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	s := &Server{
		router:  router,
		store:   st,
		outbox:  notification.NewOutbox(st),
		hub:     hub,
		gateway: notification.NewGateway(hub, opts.Heartbeat),
		opts:    opts,
	}
	s.setupRoutes()
	return s
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// corsConfig はオリジン一覧からCORS設定を組み立てる。
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-User-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	// 認証不要
	api.GET("/health", s.handleHealth())
	api.POST("/auth/register", s.handleRegister())
	api.POST("/auth/login", s.handleLogin())
	api.POST("/admin/login", s.handleAdminLogin())

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(s.opts.JWTSecret))
	{
		authed.GET("/jobs", s.handleListJobs())
		authed.GET("/companies", s.handleListCompanies())
		authed.POST("/jobs/:roleID/apply", middleware.RequireRole(middleware.RoleUser), s.handleApply())
		authed.GET("/users/:userID/applications", s.handleListUserApplications())
		authed.GET("/applications/:id/interviews", s.handleListInterviews())

		// 通知
		authed.GET("/notifications/:userID", s.handleListNotifications())
		authed.PUT("/notifications/:id/read", s.handleMarkRead())
		authed.PUT("/users/:userID/notifications/read-all", middleware.RequireRole(middleware.RoleUser), s.handleMarkAllRead())

		// ストリーム
		authed.GET("/stream", s.gateway.HandleStream())
		authed.POST("/stream/:sessionID/identify", middleware.RequireRole(middleware.RoleUser), s.gateway.HandleIdentify())
	}

	admin := api.Group("")
	admin.Use(middleware.JWTAuth(s.opts.JWTSecret), middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.GET("/applications", s.handleListApplications())
		admin.PATCH("/applications/:id", s.handleUpdateStatus())
		admin.DELETE("/applications/:id", s.handleDeleteApplication())
		admin.GET("/users", s.handleListUsers())
		admin.POST("/companies", s.handleCreateCompany())
		admin.POST("/roles", s.handleCreateRole())
		admin.POST("/interviews", s.handleCreateInterview())
		admin.POST("/notifications", s.handleCreateNotification())
		admin.GET("/admin/overview", s.handleOverview())
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "見つかりません"})
	})
}

// handleHealth はDB接続とストリームの状況を返すハンドラ。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		dbOK := s.store.Ping(c.Request.Context()) == nil
		status := http.StatusOK
		if !dbOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ok":             dbOK,
			"db":             dbOK,
			"stream":         s.hub.Stats(),
			"pollIntervalMs": s.opts.PollInterval.Milliseconds(),
		})
	}
}

// paramID はパスパラメータを正の整数IDとして取り出す。不正な場合は400を返してfalseを返す。
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + "が不正です"})
		return 0, false
	}
	return id, true
}

// canAccessUser は認証主体が指定ユーザーのデータを参照できるかを返す。
// 管理者はすべてのユーザー、一般ユーザーは自分自身のみ参照できる。
func canAccessUser(c *gin.Context, userID int64) bool {
	if middleware.GetRole(c) == middleware.RoleAdmin {
		return true
	}
	id, ok := middleware.GetUserID(c)
	return ok && id == userID
}

// respondStoreError はストアのエラーをHTTPレスポンスに変換する。
// ErrNotFoundは404、ErrDuplicateは409、それ以外は500としてログに記録する。
func respondStoreError(c *gin.Context, err error, notFound, failed string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "既に登録されています"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": failed})
		log.Printf("%s %s: %s: %v", c.Request.Method, c.FullPath(), failed, err)
	}
}
