package api

import (
	"context"
	"net/http"
	"time"

	"github.com/taufiqulumam/task-management/internal/api/auth"
	"github.com/taufiqulumam/task-management/internal/api/middleware"
	"github.com/taufiqulumam/task-management/internal/api/scheduler"
	"github.com/taufiqulumam/task-management/internal/config"
	"github.com/taufiqulumam/task-management/internal/model"
	"github.com/taufiqulumam/task-management/internal/pkg/metrics"
	"github.com/taufiqulumam/task-management/internal/pkg/notify"
	"github.com/taufiqulumam/task-management/internal/pkg/ratelimit"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有数据库连接、Redis 客户端以及 Gin 路由引擎。
// 每个请求独立、无状态地处理，持久状态全部在数据库里。
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
	rdb    *redis.Client
	router *gin.Engine
	auth   *auth.Handler
	mailer notify.Notifier
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MySQL 数据库并执行自动迁移
// 2. 连接 Redis（认证接口限流用）
// 3. 初始化 Gin 路由引擎
//
// 参数:
//
//	ctx: 上下文
//	cfg: 配置对象
//	logger: 日志记录器
//
// 返回值:
//
//	*Server: 初始化完成的服务器实例
//	error: 初始化失败返回错误
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent), // 关闭GORM调试日志
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.PasswordResetToken{},
		&model.Project{},
		&model.Task{},
		&model.Comment{},
	); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	mailer := notify.NewEmailNotifier(&cfg.Email, logger)
	limiter := ratelimit.NewRedisRateLimiter(rdb, "taskboard:ratelimit:auth:", cfg.App.RateLimit, cfg.App.RateBurst)

	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:    cfg,
		logger: logger,
		db:     db,
		rdb:    rdb,
		router: r,
		auth:   auth.NewHandler(db, cfg, mailer, logger),
		mailer: mailer,
	}
	s.registerRoutes(limiter)
	return s, nil
}

// StartReminders 启动任务到期提醒的后台调度器。
func (s *Server) StartReminders(ctx context.Context) {
	sched := scheduler.NewScheduler(s.db, s.rdb, s.logger, s.mailer,
		s.cfg.App.ReminderInterval, s.cfg.App.ReminderWindow)
	sched.Start(ctx)
}

// Run 启动 HTTP 服务器并开始监听请求。
func (s *Server) Run() error {
	s.logger.Info("api server listening", slog.String("addr", s.cfg.App.HTTPAddr))
	return s.router.Run(s.cfg.App.HTTPAddr)
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// Close 关闭数据库与缓存连接。
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			if closeErr := sqlDB.Close(); closeErr != nil {
				if firstErr == nil {
					firstErr = closeErr
				}
			}
		}
	}
	return firstErr
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes(limiter *ratelimit.RateLimiter) {
	// Prometheus metrics 端点
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/healthz", s.handleHealthz)

	// 登录与找回密码是暴力破解的主要目标，按 IP 限流
	authLimited := middleware.RateLimit(limiter, s.logger)
	s.router.POST("/register", s.auth.Register)
	s.router.POST("/login", authLimited, s.auth.Login)
	s.router.POST("/auth/forgot-password", authLimited, s.auth.ForgotPassword)
	s.router.POST("/auth/reset-password", s.auth.ResetPassword)
	s.router.GET("/auth/session", s.auth.Session)
	s.router.POST("/auth/logout", s.auth.Logout)

	authed := s.router.Group("/")
	authed.Use(middleware.AuthMiddleware(s.cfg.Security.JWTSecret, s.cfg.Security.CookieName))
	authed.GET("/projects", s.handleListProjects)
	authed.POST("/projects", s.handleCreateProject)
	authed.GET("/projects/:id", s.handleGetProject)
	authed.PUT("/projects/:id", s.handleUpdateProject)
	authed.DELETE("/projects/:id", s.handleDeleteProject)
	authed.GET("/tasks", s.handleListTasks)
	authed.POST("/tasks", s.handleCreateTask)
	authed.GET("/tasks/:id", s.handleGetTask)
	authed.PUT("/tasks/:id", s.handleUpdateTask)
	authed.DELETE("/tasks/:id", s.handleDeleteTask)
	authed.GET("/tasks/:id/comments", s.handleListComments)
	authed.POST("/tasks/:id/comments", s.handleCreateComment)
	authed.DELETE("/comments/:id", s.handleDeleteComment)
	authed.GET("/users", s.handleListUsers)
	authed.GET("/users/me", s.handleGetMe)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getUserID(c *gin.Context) uint {
	return uint(c.GetInt("userID"))
}
