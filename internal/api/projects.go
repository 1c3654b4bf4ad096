package api

import (
	"encoding/json"
	"net/http"

	"github.com/taufiqulumam/task-management/internal/model"

	"log/slog"

	"github.com/gin-gonic/gin"
)

// createProjectRequest 创建项目的请求参数。
type createProjectRequest struct {
	Name        string `json:"name" binding:"required,min=1"`
	Description string `json:"description"`
	Color       string `json:"color"`
	TeamID      *uint  `json:"team_id"`
}

// updateProjectRequest 更新项目的请求参数。指针字段缺省表示不修改；
// description / color / team_id 支持显式 null 清空。
type updateProjectRequest struct {
	Name        *string         `json:"name" binding:"omitempty,min=1"`
	Description json.RawMessage `json:"description"`
	Color       json.RawMessage `json:"color"`
	TeamID      json.RawMessage `json:"team_id"`
}

// handleListProjects 返回当前用户拥有的项目列表。
//
// GET /projects
func (s *Server) handleListProjects(c *gin.Context) {
	userID := getUserID(c)

	var projects []model.Project
	if err := s.db.WithContext(c.Request.Context()).
		Preload("Owner").
		Where("owner_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		s.respondDBError(c, err, "list projects")
		return
	}

	ids := make([]uint, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	counts, err := taskCounts(s.db.WithContext(c.Request.Context()), ids)
	if err != nil {
		s.respondDBError(c, err, "count tasks")
		return
	}

	resp := make([]projectResponse, 0, len(projects)) // Initialize as empty slice to ensure JSON is [] not null
	for i := range projects {
		resp = append(resp, toProjectResponse(&projects[i], counts[projects[i].ID]))
	}
	c.JSON(http.StatusOK, gin.H{"projects": resp})
}

// handleCreateProject 创建项目，所有者为请求者本人。
//
// POST /projects
func (s *Server) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	userID := getUserID(c)

	project := model.Project{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		TeamID:      req.TeamID,
		OwnerID:     userID,
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&project).Error; err != nil {
		s.respondDBError(c, err, "create project")
		return
	}

	if err := s.db.WithContext(c.Request.Context()).Preload("Owner").First(&project, project.ID).Error; err != nil {
		s.respondDBError(c, err, "load project")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": toProjectResponse(&project, 0)})
}

// handleGetProject 返回项目详情（含任务列表）。仅所有者可见。
//
// GET /projects/:id
func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := getUserID(c)

	if err := authorize(c.Request.Context(), s.db, RelationProjectOwner, id, userID); err != nil {
		s.respondPolicyError(c, err, "Project not found")
		return
	}

	var project model.Project
	if err := s.db.WithContext(c.Request.Context()).
		Preload("Owner").
		First(&project, id).Error; err != nil {
		s.respondDBError(c, err, "load project")
		return
	}

	var tasks []model.Task
	if err := s.db.WithContext(c.Request.Context()).
		Preload("Assignee").
		Preload("CreatedBy").
		Where("project_id = ?", id).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		s.respondDBError(c, err, "load project tasks")
		return
	}

	taskIDs := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
	}
	counts, err := commentCounts(s.db.WithContext(c.Request.Context()), taskIDs)
	if err != nil {
		s.respondDBError(c, err, "count comments")
		return
	}

	taskResp := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		taskResp = append(taskResp, toTaskResponse(&tasks[i], counts[tasks[i].ID]))
	}

	c.JSON(http.StatusOK, gin.H{
		"project": toProjectResponse(&project, int64(len(tasks))),
		"tasks":   taskResp,
	})
}

// handleUpdateProject 部分更新项目。仅所有者可改。
//
// PUT /projects/:id
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := getUserID(c)

	if err := authorize(c.Request.Context(), s.db, RelationProjectOwner, id, userID); err != nil {
		s.respondPolicyError(c, err, "Project not found")
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if present(req.Description) {
		if isNull(req.Description) {
			updates["description"] = ""
		} else {
			var v string
			if err := json.Unmarshal(req.Description, &v); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": []fieldError{{Field: "description", Message: "description must be a string or null"}}})
				return
			}
			updates["description"] = v
		}
	}
	if present(req.Color) {
		if isNull(req.Color) {
			updates["color"] = ""
		} else {
			var v string
			if err := json.Unmarshal(req.Color, &v); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": []fieldError{{Field: "color", Message: "color must be a string or null"}}})
				return
			}
			updates["color"] = v
		}
	}
	if present(req.TeamID) {
		if isNull(req.TeamID) {
			updates["team_id"] = nil
		} else {
			tid, ok := parseUintField(c, req.TeamID, "team_id")
			if !ok {
				return
			}
			updates["team_id"] = tid
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(c.Request.Context()).
			Model(&model.Project{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			s.respondDBError(c, err, "update project")
			return
		}
	}

	var project model.Project
	if err := s.db.WithContext(c.Request.Context()).Preload("Owner").First(&project, id).Error; err != nil {
		s.respondDBError(c, err, "load project")
		return
	}
	counts, err := taskCounts(s.db.WithContext(c.Request.Context()), []uint{id})
	if err != nil {
		s.respondDBError(c, err, "count tasks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": toProjectResponse(&project, counts[id])})
}

// handleDeleteProject 删除项目。仅所有者可删；项目下的任务保留，
// 只解除与项目的关联（任务归属项目本来就是可选的）。
//
// DELETE /projects/:id
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := getUserID(c)

	if err := authorize(c.Request.Context(), s.db, RelationProjectOwner, id, userID); err != nil {
		s.respondPolicyError(c, err, "Project not found")
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

	if err := tx.Model(&model.Task{}).
		Where("project_id = ?", id).
		Update("project_id", nil).Error; err != nil {
		tx.Rollback()
		s.respondDBError(c, err, "detach project tasks")
		return
	}
	if err := tx.Where("id = ?", id).Delete(&model.Project{}).Error; err != nil {
		tx.Rollback()
		s.respondDBError(c, err, "delete project")
		return
	}
	if err := tx.Commit().Error; err != nil {
		s.respondDBError(c, err, "delete project")
		return
	}

	s.logger.Info("project deleted", slog.Uint64("project_id", uint64(id)), slog.Uint64("user_id", uint64(userID)))
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}
