package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/taufiqulumam/task-management/internal/config"
	"github.com/taufiqulumam/task-management/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newAuthEnv(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.User{}, &model.PasswordResetToken{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	cfg := &config.Config{
		App: config.AppConfig{
			BaseURL:       "http://localhost:8080",
			SessionTTL:    24 * time.Hour,
			ResetTokenTTL: time.Hour,
		},
		Security: config.SecurityConfig{
			JWTSecret:  "test-secret",
			CookieName: "auth_token",
		},
	}
	h := NewHandler(db, cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/session", h.Session)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/reset-password", h.ResetPassword)
	return r, h
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getSession(t *testing.T, r *gin.Engine, cookies ...*http.Cookie) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("session endpoint must always return 200, got %d", w.Code)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return out
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "auth_token" && ck.Value != "" {
			return ck
		}
	}
	t.Fatalf("expected a session cookie in response")
	return nil
}

func TestRegisterLoginSessionFlow(t *testing.T) {
	r, _ := newAuthEnv(t)

	w := postJSON(t, r, "/register", map[string]interface{}{
		"name":     "Alice Johnson",
		"email":    "Alice@Example.com",
		"password": "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	ck := sessionCookie(t, w)
	if !ck.HttpOnly {
		t.Fatalf("session cookie must be HTTP-only")
	}

	// Email is normalized to lower case.
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	user := body["user"].(map[string]interface{})
	if user["email"] != "alice@example.com" {
		t.Fatalf("expected normalized email, got %v", user["email"])
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password must never appear in responses")
	}

	sess := getSession(t, r, ck)
	if sess["authenticated"] != true {
		t.Fatalf("expected authenticated session, got %v", sess)
	}

	// Login with the normalized address works too.
	w = postJSON(t, r, "/login", map[string]interface{}{"email": "alice@example.com", "password": "password123"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 login, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r, _ := newAuthEnv(t)

	first := map[string]interface{}{"name": "Alice", "email": "alice@example.com", "password": "password123"}
	if w := postJSON(t, r, "/register", first); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if w := postJSON(t, r, "/register", first); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate email, got %d", w.Code)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	r, _ := newAuthEnv(t)

	postJSON(t, r, "/register", map[string]interface{}{"name": "Alice", "email": "alice@example.com", "password": "password123"})

	w := postJSON(t, r, "/login", map[string]interface{}{"email": "alice@example.com", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}
	w = postJSON(t, r, "/login", map[string]interface{}{"email": "nobody@example.com", "password": "password123"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", w.Code)
	}
}

func TestSession_NeverErrors(t *testing.T) {
	r, h := newAuthEnv(t)

	// No cookie.
	sess := getSession(t, r)
	if sess["authenticated"] != false || sess["user"] != nil {
		t.Fatalf("expected anonymous session, got %v", sess)
	}

	// Garbage cookie.
	sess = getSession(t, r, &http.Cookie{Name: "auth_token", Value: "not-a-jwt"})
	if sess["authenticated"] != false {
		t.Fatalf("expected anonymous session for malformed token, got %v", sess)
	}

	// Token signed with the wrong key.
	forged := signToken(t, "wrong-secret", 1, time.Now().Add(time.Hour))
	sess = getSession(t, r, &http.Cookie{Name: "auth_token", Value: forged})
	if sess["authenticated"] != false {
		t.Fatalf("expected anonymous session for forged token, got %v", sess)
	}

	// Expired token signed with the right key.
	expired := signToken(t, h.cfg.Security.JWTSecret, 1, time.Now().Add(-time.Minute))
	sess = getSession(t, r, &http.Cookie{Name: "auth_token", Value: expired})
	if sess["authenticated"] != false {
		t.Fatalf("expected anonymous session for expired token, got %v", sess)
	}
}

func signToken(t *testing.T, secret string, userID uint, expiresAt time.Time) string {
	t.Helper()
	claims := customClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
		Email: "alice@example.com",
		Name:  "Alice",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestLogout_ClearsCookie(t *testing.T) {
	r, _ := newAuthEnv(t)

	w := postJSON(t, r, "/auth/logout", map[string]interface{}{})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "auth_token" && ck.MaxAge >= 0 {
			t.Fatalf("expected cookie expired on logout, MaxAge=%d", ck.MaxAge)
		}
	}
}

func TestForgotPassword_UnknownEmailIsGeneric(t *testing.T) {
	r, _ := newAuthEnv(t)

	w := postJSON(t, r, "/auth/forgot-password", map[string]interface{}{"email": "ghost@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 regardless of email existence, got %d", w.Code)
	}
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if _, hasLink := body["reset_link"]; hasLink {
		t.Fatalf("unknown email must not produce a reset link")
	}
}

func TestForgotPassword_RotatesToken(t *testing.T) {
	r, h := newAuthEnv(t)
	postJSON(t, r, "/register", map[string]interface{}{"name": "Alice", "email": "alice@example.com", "password": "password123"})

	if w := postJSON(t, r, "/auth/forgot-password", map[string]interface{}{"email": "alice@example.com"}); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	var first model.PasswordResetToken
	if err := h.db.First(&first).Error; err != nil {
		t.Fatalf("load first token: %v", err)
	}

	if w := postJSON(t, r, "/auth/forgot-password", map[string]interface{}{"email": "alice@example.com"}); w.Code != http.StatusOK {
		t.Fatalf("second request: %d", w.Code)
	}

	// Only one live token per user, and the first one no longer redeems.
	var n int64
	h.db.Model(&model.PasswordResetToken{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected a single live token, got %d", n)
	}
	w := postJSON(t, r, "/auth/reset-password", map[string]interface{}{"token": first.Token, "password": "newpassword"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected superseded token to be rejected, got %d", w.Code)
	}
}

func TestResetPassword_ExpiredTokenRemoved(t *testing.T) {
	r, h := newAuthEnv(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := model.User{Name: "Alice", Email: "alice@example.com", Password: string(hash)}
	if err := h.db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	token := model.PasswordResetToken{Token: "deadbeef", UserID: user.ID, ExpiresAt: time.Now().Add(-time.Minute)}
	if err := h.db.Create(&token).Error; err != nil {
		t.Fatalf("create token: %v", err)
	}

	w := postJSON(t, r, "/auth/reset-password", map[string]interface{}{"token": "deadbeef", "password": "newpassword"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for expired token, got %d: %s", w.Code, w.Body.String())
	}

	var n int64
	h.db.Model(&model.PasswordResetToken{}).Count(&n)
	if n != 0 {
		t.Fatalf("expired token must be removed on redemption attempt")
	}
}

func TestResetPassword_SingleUse(t *testing.T) {
	r, h := newAuthEnv(t)
	postJSON(t, r, "/register", map[string]interface{}{"name": "Alice", "email": "alice@example.com", "password": "password123"})
	postJSON(t, r, "/auth/forgot-password", map[string]interface{}{"email": "alice@example.com"})

	var token model.PasswordResetToken
	if err := h.db.First(&token).Error; err != nil {
		t.Fatalf("load token: %v", err)
	}

	w := postJSON(t, r, "/auth/reset-password", map[string]interface{}{"token": token.Token, "password": "newpassword"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on first redemption, got %d: %s", w.Code, w.Body.String())
	}
	w = postJSON(t, r, "/auth/reset-password", map[string]interface{}{"token": token.Token, "password": "another"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on second redemption, got %d", w.Code)
	}

	// The old password stops working, the new one logs in.
	w = postJSON(t, r, "/login", map[string]interface{}{"email": "alice@example.com", "password": "password123"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected old password rejected, got %d", w.Code)
	}
	w = postJSON(t, r, "/login", map[string]interface{}{"email": "alice@example.com", "password": "newpassword"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected new password accepted, got %d: %s", w.Code, w.Body.String())
	}
}
