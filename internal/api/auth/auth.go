package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/taufiqulumam/task-management/internal/config"
	"github.com/taufiqulumam/task-management/internal/model"
	"github.com/taufiqulumam/task-management/internal/pkg/notify"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Handler 提供注册、登录、会话检查与密码重置接口。
type Handler struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer notify.Notifier
	logger *slog.Logger
}

// NewHandler 创建 Auth Handler。
func NewHandler(db *gorm.DB, cfg *config.Config, mailer notify.Notifier, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		cfg:    cfg,
		mailer: mailer,
		logger: logger,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type userPayload struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

type customClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register 创建新用户并下发会话 Cookie。
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	var existing model.User
	err := h.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A record with this data already exists"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.logger.Error("query user failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user := model.User{
		Email:    email,
		Password: string(hash),
		Name:     strings.TrimSpace(req.Name),
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.logger.Error("create user failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.setSessionCookie(c, &user); err != nil {
		h.logger.Error("sign token failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.logger.Info("user registered", slog.String("email", email))
	c.JSON(http.StatusCreated, gin.H{"user": toUserPayload(&user)})
}

// Login 校验用户凭证并下发会话 Cookie。
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	var user model.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := h.setSessionCookie(c, &user); err != nil {
		h.logger.Error("sign token failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.logger.Info("user logged in", slog.String("email", email))
	c.JSON(http.StatusOK, gin.H{"user": toUserPayload(&user)})
}

// Logout 清除会话 Cookie。
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Security.CookieName, "", -1, "/", "", h.cfg.Security.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Session 返回当前会话状态。
//
// 任何失败（Cookie 缺失、令牌格式错误、过期、签名不符）都返回
// {"authenticated": false, "user": null}，状态码恒为 200，绝不报错，
// 客户端因此可以统一处理"未登录"。
func (h *Handler) Session(c *gin.Context) {
	tokenStr, err := c.Cookie(h.cfg.Security.CookieName)
	if err != nil || tokenStr == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
		return
	}

	claims := &customClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.cfg.Security.JWTSecret), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
		return
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "user": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user": userPayload{
			ID:    uint(uid),
			Name:  claims.Name,
			Email: claims.Email,
		},
	})
}

// ForgotPassword 申请密码重置令牌。
//
// 无论邮箱是否存在都返回同一条消息（不泄露注册状态）；
// 邮箱存在时重新生成令牌并废弃旧令牌，链接直接随响应返回（演示用），
// 配置了 SMTP 时同时发送邮件。
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	const message = "If the email exists, a reset link has been sent"

	var user model.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"message": message})
			return
		}
		h.logger.Error("query user failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	tokenStr, err := generateResetToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	// 旧令牌作废：同一用户最多只有一个有效令牌
	if err := h.db.Where("user_id = ?", user.ID).Delete(&model.PasswordResetToken{}).Error; err != nil {
		h.logger.Error("delete reset tokens failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	reset := model.PasswordResetToken{
		Token:     tokenStr,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(h.cfg.App.ResetTokenTTL),
	}
	if err := h.db.Create(&reset).Error; err != nil {
		h.logger.Error("create reset token failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	resetLink := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(h.cfg.App.BaseURL, "/"), tokenStr)

	if h.mailer != nil {
		if err := h.mailer.SendPasswordReset(c.Request.Context(), user.Email, resetLink); err != nil {
			h.logger.Warn("send reset email failed", slog.String("email", email), slog.String("error", err.Error()))
		}
	}

	h.logger.Info("password reset requested", slog.String("email", email))
	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"reset_link": resetLink,
	})
}

// ResetPassword 兑换重置令牌并更新密码。令牌单次有效。
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	var reset model.PasswordResetToken
	if err := h.db.Where("token = ?", req.Token).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
			return
		}
		h.logger.Error("query reset token failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	if time.Now().After(reset.ExpiresAt) {
		// 过期令牌在检查时顺手删除
		_ = h.db.Delete(&reset).Error
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reset token has expired"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	if err := h.db.Model(&model.User{}).Where("id = ?", reset.UserID).Update("password", string(hash)).Error; err != nil {
		h.logger.Error("update password failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	if err := h.db.Delete(&reset).Error; err != nil {
		h.logger.Error("delete reset token failed", slog.String("error", err.Error()))
	}

	h.logger.Info("password reset completed", slog.Uint64("user_id", uint64(reset.UserID)))
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}

// setSessionCookie 签发 JWT 并写入 HTTP-only Cookie。令牌绝不出现在响应体中。
func (h *Handler) setSessionCookie(c *gin.Context, user *model.User) error {
	now := time.Now()
	claims := customClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.App.SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: user.Email,
		Name:  user.Name,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.Security.JWTSecret))
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Security.CookieName, signed, int(h.cfg.App.SessionTTL.Seconds()), "/", "", h.cfg.Security.CookieSecure, true)
	return nil
}

func toUserPayload(user *model.User) userPayload {
	return userPayload{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Image: user.Image,
	}
}

// bindErrorMessage 将绑定错误转为对用户友好的单条消息。
func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
		case "email":
			return "Invalid email address"
		case "min":
			return fmt.Sprintf("%s must be at least %s characters", strings.ToLower(fe.Field()), fe.Param())
		}
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
	}
	return "Invalid request body"
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
