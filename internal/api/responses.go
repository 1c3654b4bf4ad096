package api

import (
	"time"

	"github.com/taufiqulumam/task-management/internal/model"

	"gorm.io/gorm"
)

// userSummary 嵌入在其它实体响应中的用户摘要。密码哈希永远不出现在响应里。
type userSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// projectSummary 嵌入在任务响应中的项目摘要。
type projectSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type projectResponse struct {
	ID          uint         `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Color       string       `json:"color,omitempty"`
	OwnerID     uint         `json:"owner_id"`
	TeamID      *uint        `json:"team_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Owner       *userSummary `json:"owner,omitempty"`
	TaskCount   int64        `json:"task_count"`
}

type taskResponse struct {
	ID           uint               `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	Status       model.TaskStatus   `json:"status"`
	Priority     model.TaskPriority `json:"priority"`
	DueDate      *time.Time         `json:"due_date"`
	CompletedAt  *time.Time         `json:"completed_at"`
	ProjectID    *uint              `json:"project_id"`
	AssigneeID   *uint              `json:"assignee_id"`
	CreatedByID  uint               `json:"created_by_id"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Project      *projectSummary    `json:"project,omitempty"`
	Assignee     *userSummary       `json:"assignee,omitempty"`
	CreatedBy    *userSummary       `json:"created_by,omitempty"`
	CommentCount int64              `json:"comment_count"`
	Comments     []commentResponse  `json:"comments,omitempty"`
}

type commentResponse struct {
	ID        uint         `json:"id"`
	Content   string       `json:"content"`
	TaskID    uint         `json:"task_id"`
	AuthorID  uint         `json:"author_id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Author    *userSummary `json:"author,omitempty"`
}

func toUserSummary(u *model.User) *userSummary {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &userSummary{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image}
}

func toProjectResponse(p *model.Project, taskCount int64) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		OwnerID:     p.OwnerID,
		TeamID:      p.TeamID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Owner:       toUserSummary(&p.Owner),
		TaskCount:   taskCount,
	}
}

func toTaskResponse(t *model.Task, commentCount int64) taskResponse {
	resp := taskResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		DueDate:      t.DueDate,
		CompletedAt:  t.CompletedAt,
		ProjectID:    t.ProjectID,
		AssigneeID:   t.AssigneeID,
		CreatedByID:  t.CreatedByID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		CreatedBy:    toUserSummary(&t.CreatedBy),
		CommentCount: commentCount,
	}
	if t.Project != nil && t.Project.ID != 0 {
		resp.Project = &projectSummary{ID: t.Project.ID, Name: t.Project.Name, Color: t.Project.Color}
	}
	if t.Assignee != nil && t.Assignee.ID != 0 {
		resp.Assignee = toUserSummary(t.Assignee)
	}
	return resp
}

func toCommentResponse(cm *model.Comment) commentResponse {
	return commentResponse{
		ID:        cm.ID,
		Content:   cm.Content,
		TaskID:    cm.TaskID,
		AuthorID:  cm.AuthorID,
		CreatedAt: cm.CreatedAt,
		UpdatedAt: cm.UpdatedAt,
		Author:    toUserSummary(&cm.Author),
	}
}

// commentCounts 批量统计任务的评论数，避免列表接口 N+1 查询。
func commentCounts(db *gorm.DB, taskIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(taskIDs))
	if len(taskIDs) == 0 {
		return counts, nil
	}

	type row struct {
		TaskID uint
		N      int64
	}
	var rows []row
	if err := db.Model(&model.Comment{}).
		Select("task_id, COUNT(*) as n").
		Where("task_id IN ?", taskIDs).
		Group("task_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.TaskID] = r.N
	}
	return counts, nil
}

// taskCounts 批量统计项目的任务数。
func taskCounts(db *gorm.DB, projectIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}

	type row struct {
		ProjectID uint
		N         int64
	}
	var rows []row
	if err := db.Model(&model.Task{}).
		Select("project_id, COUNT(*) as n").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ProjectID] = r.N
	}
	return counts, nil
}
