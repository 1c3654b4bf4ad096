package api

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondDBError 将数据层错误映射为 HTTP 响应。
//
// 记录未找到 → 404，唯一约束冲突 → 409，其余一律 500；
// 内部细节只进日志，不泄露给客户端。
func (s *Server) respondDBError(c *gin.Context, err error, op string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		c.JSON(http.StatusConflict, gin.H{"error": "A record with this data already exists"})
		return
	}
	s.logger.Error(op+" failed", slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// respondPolicyError 将访问控制错误映射为 HTTP 响应。
// 身份有效但权限不足返回 403，与 401（未认证）严格区分。
func (s *Server) respondPolicyError(c *gin.Context, err error, notFoundMsg string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
		return
	}
	if errors.Is(err, ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	s.respondDBError(c, err, "authorize")
}
