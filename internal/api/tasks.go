package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/taufiqulumam/task-management/internal/model"
	"github.com/taufiqulumam/task-management/internal/pkg/metrics"

	"log/slog"

	"github.com/gin-gonic/gin"
)

// createTaskRequest 创建任务的请求参数。
type createTaskRequest struct {
	Title       string  `json:"title" binding:"required,min=1"`
	Description string  `json:"description"`
	Status      string  `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE CANCELLED"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *string `json:"due_date"`
	ProjectID   *uint   `json:"project_id"`
	AssigneeID  *uint   `json:"assignee_id"`
}

// updateTaskRequest 更新任务的请求参数。
//
// 指针字段缺省表示不修改；due_date / project_id / assignee_id 使用
// RawMessage 以区分"未出现"和"显式 null"——显式 null 表示清空。
type updateTaskRequest struct {
	Title       *string         `json:"title" binding:"omitempty,min=1"`
	Description *string         `json:"description"`
	Status      *string         `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE CANCELLED"`
	Priority    *string         `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     json.RawMessage `json:"due_date"`
	ProjectID   json.RawMessage `json:"project_id"`
	AssigneeID  json.RawMessage `json:"assignee_id"`
}

// handleListTasks 返回任务列表。
//
// GET /tasks?status=&priority=&project_id=&assignee_id=
//
// 过滤条件直接落到查询上；任务读取对所有已登录用户开放（共享看板）。
func (s *Server) handleListTasks(c *gin.Context) {
	query := s.db.WithContext(c.Request.Context()).Model(&model.Task{}).
		Preload("Project").
		Preload("Assignee").
		Preload("CreatedBy").
		Order("created_at DESC")

	if v := c.Query("status"); v != "" {
		if !model.ValidStatus(model.TaskStatus(v)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		query = query.Where("status = ?", v)
	}
	if v := c.Query("priority"); v != "" {
		if !model.ValidPriority(model.TaskPriority(v)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority filter"})
			return
		}
		query = query.Where("priority = ?", v)
	}
	if v := c.Query("project_id"); v != "" {
		query = query.Where("project_id = ?", v)
	}
	if v := c.Query("assignee_id"); v != "" {
		query = query.Where("assignee_id = ?", v)
	}

	var tasks []model.Task
	if err := query.Find(&tasks).Error; err != nil {
		s.respondDBError(c, err, "list tasks")
		return
	}

	ids := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	counts, err := commentCounts(s.db.WithContext(c.Request.Context()), ids)
	if err != nil {
		s.respondDBError(c, err, "count comments")
		return
	}

	resp := make([]taskResponse, 0, len(tasks)) // Initialize as empty slice to ensure JSON is [] not null
	for i := range tasks {
		resp = append(resp, toTaskResponse(&tasks[i], counts[tasks[i].ID]))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": resp})
}

// handleCreateTask 创建任务。
//
// POST /tasks
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	userID := getUserID(c)

	task := model.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.StatusTodo,
		Priority:    model.PriorityMedium,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
		CreatedByID: userID,
	}
	if req.Status != "" {
		task.Status = model.TaskStatus(req.Status)
	}
	if req.Priority != "" {
		task.Priority = model.TaskPriority(req.Priority)
	}
	if req.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": []fieldError{{Field: "due_date", Message: "due_date must be an ISO-8601 datetime"}}})
			return
		}
		task.DueDate = &due
	}

	if err := s.db.WithContext(c.Request.Context()).Create(&task).Error; err != nil {
		s.respondDBError(c, err, "create task")
		return
	}

	created, err := s.loadTask(c, task.ID)
	if err != nil {
		s.respondDBError(c, err, "load task")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": toTaskResponse(created, 0)})
}

// handleGetTask 返回单个任务详情（含评论）。
//
// GET /tasks/:id
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var task model.Task
	err := s.db.WithContext(c.Request.Context()).
		Preload("Project").
		Preload("Assignee").
		Preload("CreatedBy").
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		s.respondPolicyError(c, err, "Task not found")
		return
	}

	var comments []model.Comment
	if err := s.db.WithContext(c.Request.Context()).
		Preload("Author").
		Where("task_id = ?", id).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		s.respondDBError(c, err, "load comments")
		return
	}

	resp := toTaskResponse(&task, int64(len(comments)))
	for i := range comments {
		resp.Comments = append(resp.Comments, toCommentResponse(&comments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"task": resp})
}

// handleUpdateTask 部分更新任务，并派生完成时间。
//
// PUT /tasks/:id
//
// 状态之间不设守卫，任意状态可直接切换到任意状态。唯一副作用规则：
// 切入 DONE 写入 completed_at = now；状态出现在载荷中且不是 DONE 时清空；
// 载荷中没有状态则完全不碰 completed_at。
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := getUserID(c)

	if err := authorize(c.Request.Context(), s.db, RelationTaskEditor, id, userID); err != nil {
		s.respondPolicyError(c, err, "Task not found")
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Status != nil {
		updates["status"] = *req.Status
		if *req.Status == string(model.StatusDone) {
			updates["completed_at"] = time.Now()
			metrics.TasksCompletedTotal.Inc()
		} else {
			updates["completed_at"] = nil
		}
	}

	if present(req.DueDate) {
		if isNull(req.DueDate) {
			updates["due_date"] = nil
		} else {
			var raw string
			if err := json.Unmarshal(req.DueDate, &raw); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": []fieldError{{Field: "due_date", Message: "due_date must be an ISO-8601 datetime or null"}}})
				return
			}
			due, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": []fieldError{{Field: "due_date", Message: "due_date must be an ISO-8601 datetime or null"}}})
				return
			}
			updates["due_date"] = due
		}
	}
	if present(req.ProjectID) {
		if isNull(req.ProjectID) {
			updates["project_id"] = nil
		} else {
			pid, ok := parseUintField(c, req.ProjectID, "project_id")
			if !ok {
				return
			}
			updates["project_id"] = pid
		}
	}
	if present(req.AssigneeID) {
		if isNull(req.AssigneeID) {
			updates["assignee_id"] = nil
		} else {
			aid, ok := parseUintField(c, req.AssigneeID, "assignee_id")
			if !ok {
				return
			}
			updates["assignee_id"] = aid
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(c.Request.Context()).
			Model(&model.Task{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			s.respondDBError(c, err, "update task")
			return
		}
	}

	task, err := s.loadTask(c, id)
	if err != nil {
		s.respondDBError(c, err, "load task")
		return
	}
	count, err := commentCounts(s.db.WithContext(c.Request.Context()), []uint{id})
	if err != nil {
		s.respondDBError(c, err, "count comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": toTaskResponse(task, count[id])})
}

// handleDeleteTask 删除任务及其评论。
//
// DELETE /tasks/:id
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := getUserID(c)

	if err := authorize(c.Request.Context(), s.db, RelationTaskEditor, id, userID); err != nil {
		s.respondPolicyError(c, err, "Task not found")
		return
	}

	tx := s.db.WithContext(c.Request.Context()).Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("task_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
		tx.Rollback()
		s.respondDBError(c, err, "delete task comments")
		return
	}
	if err := tx.Where("id = ?", id).Delete(&model.Task{}).Error; err != nil {
		tx.Rollback()
		s.respondDBError(c, err, "delete task")
		return
	}
	if err := tx.Commit().Error; err != nil {
		s.respondDBError(c, err, "delete task")
		return
	}

	s.logger.Info("task deleted", slog.Uint64("task_id", uint64(id)), slog.Uint64("user_id", uint64(userID)))
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// loadTask 加载任务及其关联摘要。
func (s *Server) loadTask(c *gin.Context, id uint) (*model.Task, error) {
	var task model.Task
	err := s.db.WithContext(c.Request.Context()).
		Preload("Project").
		Preload("Assignee").
		Preload("CreatedBy").
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// parseIDParam 解析路径中的数字 ID，非法时返回 400。
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

func parseUintField(c *gin.Context, raw json.RawMessage, field string) (uint, bool) {
	var v uint
	if err := json.Unmarshal(raw, &v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": []fieldError{{Field: field, Message: field + " must be a positive integer or null"}}})
		return 0, false
	}
	return v, true
}

// present 判断 RawMessage 字段是否出现在请求载荷中。
func present(raw json.RawMessage) bool {
	return len(raw) > 0
}

// isNull 判断字段是否为显式 null。
func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
