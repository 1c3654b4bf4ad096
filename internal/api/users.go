package api

import (
	"errors"
	"net/http"

	"github.com/taufiqulumam/task-management/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// handleListUsers 返回全部用户（按姓名排序），用于指派任务时的候选列表。
//
// GET /users
func (s *Server) handleListUsers(c *gin.Context) {
	var users []model.User
	if err := s.db.WithContext(c.Request.Context()).
		Order("name ASC").
		Find(&users).Error; err != nil {
		s.respondDBError(c, err, "list users")
		return
	}

	resp := make([]userSummary, 0, len(users))
	for i := range users {
		if u := toUserSummary(&users[i]); u != nil {
			resp = append(resp, *u)
		}
	}
	c.JSON(http.StatusOK, gin.H{"users": resp})
}

// handleGetMe 返回当前登录用户的资料。
//
// GET /users/me
func (s *Server) handleGetMe(c *gin.Context) {
	userID := getUserID(c)

	var user model.User
	if err := s.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		s.respondDBError(c, err, "load user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"image":      user.Image,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	}})
}
