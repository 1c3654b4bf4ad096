package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taufiqulumam/task-management/internal/config"
	"github.com/taufiqulumam/task-management/internal/model"
	"github.com/taufiqulumam/task-management/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	// A second pooled connection would see an empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.PasswordResetToken{},
		&model.Project{},
		&model.Task{},
		&model.Comment{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// testEnv bundles a server with a router whose auth is replaced by a
// switchable identity, so tests can act as different users.
type testEnv struct {
	srv    *Server
	router *gin.Engine
	userID uint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()

	cfg := &config.Config{
		App: config.AppConfig{
			SessionTTL:    24 * time.Hour,
			ResetTokenTTL: time.Hour,
		},
		Security: config.SecurityConfig{
			JWTSecret:  "test-secret",
			CookieName: "auth_token",
		},
	}

	srv := &Server{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		db:     newTestDB(t),
	}

	env := &testEnv{srv: srv}

	r := gin.New()
	authed := r.Group("/")
	authed.Use(func(c *gin.Context) {
		c.Set("userID", int(env.userID))
		c.Next()
	})
	authed.GET("/projects", srv.handleListProjects)
	authed.POST("/projects", srv.handleCreateProject)
	authed.GET("/projects/:id", srv.handleGetProject)
	authed.PUT("/projects/:id", srv.handleUpdateProject)
	authed.DELETE("/projects/:id", srv.handleDeleteProject)
	authed.GET("/tasks", srv.handleListTasks)
	authed.POST("/tasks", srv.handleCreateTask)
	authed.GET("/tasks/:id", srv.handleGetTask)
	authed.PUT("/tasks/:id", srv.handleUpdateTask)
	authed.DELETE("/tasks/:id", srv.handleDeleteTask)
	authed.GET("/tasks/:id/comments", srv.handleListComments)
	authed.POST("/tasks/:id/comments", srv.handleCreateComment)
	authed.DELETE("/comments/:id", srv.handleDeleteComment)
	authed.GET("/users", srv.handleListUsers)
	authed.GET("/users/me", srv.handleGetMe)

	env.router = r
	return env
}

// as switches the acting user for subsequent requests.
func (e *testEnv) as(userID uint) {
	e.userID = userID
}

func (e *testEnv) createUser(t *testing.T, name, email string) model.User {
	t.Helper()
	user := model.User{Name: name, Email: email, Password: "x"}
	if err := e.srv.db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = bytes.NewBufferString(v)
		default:
			payload, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			reader = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}
