package api

import (
	"errors"
	"net/http"

	"github.com/taufiqulumam/task-management/internal/model"

	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// createCommentRequest 发表评论的请求参数。
type createCommentRequest struct {
	Content string `json:"content" binding:"required,min=1"`
}

// handleListComments 返回任务下的评论列表。
//
// GET /tasks/:id/comments
func (s *Server) handleListComments(c *gin.Context) {
	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.ensureTaskExists(c, taskID); err != nil {
		return
	}

	var comments []model.Comment
	if err := s.db.WithContext(c.Request.Context()).
		Preload("Author").
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		s.respondDBError(c, err, "list comments")
		return
	}

	resp := make([]commentResponse, 0, len(comments)) // Initialize as empty slice to ensure JSON is [] not null
	for i := range comments {
		resp = append(resp, toCommentResponse(&comments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"comments": resp})
}

// handleCreateComment 在任务下发表评论。
//
// POST /tasks/:id/comments
func (s *Server) handleCreateComment(c *gin.Context) {
	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := getUserID(c)

	if err := s.ensureTaskExists(c, taskID); err != nil {
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	comment := model.Comment{
		Content:  req.Content,
		TaskID:   taskID,
		AuthorID: userID,
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&comment).Error; err != nil {
		s.respondDBError(c, err, "create comment")
		return
	}

	if err := s.db.WithContext(c.Request.Context()).Preload("Author").First(&comment, comment.ID).Error; err != nil {
		s.respondDBError(c, err, "load comment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": toCommentResponse(&comment)})
}

// handleDeleteComment 删除评论。仅作者本人可删。
//
// DELETE /comments/:id
func (s *Server) handleDeleteComment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := getUserID(c)

	if err := authorize(c.Request.Context(), s.db, RelationCommentAuthor, id, userID); err != nil {
		s.respondPolicyError(c, err, "Comment not found")
		return
	}

	if err := s.db.WithContext(c.Request.Context()).Where("id = ?", id).Delete(&model.Comment{}).Error; err != nil {
		s.respondDBError(c, err, "delete comment")
		return
	}

	s.logger.Info("comment deleted", slog.Uint64("comment_id", uint64(id)), slog.Uint64("user_id", uint64(userID)))
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// ensureTaskExists 校验任务存在，不存在时写出 404 并返回非 nil 错误。
func (s *Server) ensureTaskExists(c *gin.Context, taskID uint) error {
	var task model.Task
	err := s.db.WithContext(c.Request.Context()).Select("id").Where("id = ?", taskID).First(&task).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return err
	}
	s.respondDBError(c, err, "load task")
	return err
}
