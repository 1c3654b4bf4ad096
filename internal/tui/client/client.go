package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/taufiqulumam/task-management/internal/model"
)

// APIError carries the server's status code and error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// User 接口返回的用户摘要。
type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// Project 接口返回的项目。
type Project struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	OwnerID     uint      `json:"owner_id"`
	TaskCount   int64     `json:"task_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectSummary 任务里嵌套的项目摘要。
type ProjectSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Comment 接口返回的评论。
type Comment struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	TaskID    uint      `json:"task_id"`
	AuthorID  uint      `json:"author_id"`
	Author    *User     `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Task 接口返回的任务。
type Task struct {
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
	Project      *ProjectSummary    `json:"project,omitempty"`
	Assignee     *User              `json:"assignee,omitempty"`
	CreatedBy    *User              `json:"created_by,omitempty"`
	CommentCount int64              `json:"comment_count"`
	Comments     []Comment          `json:"comments,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Session 会话检查结果。
type Session struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user"`
}

// TaskFilter 任务列表的服务端过滤条件。零值表示不过滤。
type TaskFilter struct {
	Status     model.TaskStatus
	Priority   model.TaskPriority
	ProjectID  uint
	AssigneeID uint
}

// TaskUpdate 任务的部分更新。nil 指针字段不会出现在载荷里；
// ClearDueDate / ClearAssignee / ClearProject 显式发送 null 以清空字段。
type TaskUpdate struct {
	Title         *string
	Description   *string
	Status        *model.TaskStatus
	Priority      *model.TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	ProjectID     *uint
	ClearProject  bool
	AssigneeID    *uint
	ClearAssignee bool
}

func (u TaskUpdate) payload() map[string]interface{} {
	p := map[string]interface{}{}
	if u.Title != nil {
		p["title"] = *u.Title
	}
	if u.Description != nil {
		p["description"] = *u.Description
	}
	if u.Status != nil {
		p["status"] = *u.Status
	}
	if u.Priority != nil {
		p["priority"] = *u.Priority
	}
	switch {
	case u.ClearDueDate:
		p["due_date"] = nil
	case u.DueDate != nil:
		p["due_date"] = u.DueDate.Format(time.RFC3339)
	}
	switch {
	case u.ClearProject:
		p["project_id"] = nil
	case u.ProjectID != nil:
		p["project_id"] = *u.ProjectID
	}
	switch {
	case u.ClearAssignee:
		p["assignee_id"] = nil
	case u.AssigneeID != nil:
		p["assignee_id"] = *u.AssigneeID
	}
	return p
}

// Client 是 API 服务的 HTTP 客户端。
//
// 会话 Cookie 保存在 cookie jar 里，登录一次后自动随请求携带。
type Client struct {
	baseURL string
	http    *http.Client
}

// New 创建指向 baseURL 的客户端。
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Login 登录并保存会话 Cookie。
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Register 注册新用户并保存会话 Cookie。
func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Session 返回当前会话状态。服务端对该接口从不报错。
func (c *Client) Session(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodGet, "/auth/session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout 注销会话。
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// ListTasks 按过滤条件返回任务列表。
func (c *Client) ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Priority != "" {
		q.Set("priority", string(filter.Priority))
	}
	if filter.ProjectID != 0 {
		q.Set("project_id", fmt.Sprint(filter.ProjectID))
	}
	if filter.AssigneeID != 0 {
		q.Set("assignee_id", fmt.Sprint(filter.AssigneeID))
	}

	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// GetTask 返回任务详情（含评论）。
func (c *Client) GetTask(ctx context.Context, id uint) (*Task, error) {
	var out struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// CreateTask 创建任务。
func (c *Client) CreateTask(ctx context.Context, title, description string, projectID *uint) (*Task, error) {
	payload := map[string]interface{}{
		"title":       title,
		"description": description,
	}
	if projectID != nil {
		payload["project_id"] = *projectID
	}
	var out struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/tasks", payload, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// UpdateTask 部分更新任务。
func (c *Client) UpdateTask(ctx context.Context, id uint, update TaskUpdate) (*Task, error) {
	var out struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), update.payload(), &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// UpdateTaskStatus 仅更新任务状态（看板拖动）。
func (c *Client) UpdateTaskStatus(ctx context.Context, id uint, status model.TaskStatus) (*Task, error) {
	return c.UpdateTask(ctx, id, TaskUpdate{Status: &status})
}

// DeleteTask 删除任务。
func (c *Client) DeleteTask(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil)
}

// ListProjects 返回自己的项目列表。
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out struct {
		Projects []Project `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// CreateProject 创建项目。
func (c *Client) CreateProject(ctx context.Context, name, description, color string) (*Project, error) {
	var out struct {
		Project Project `json:"project"`
	}
	err := c.do(ctx, http.MethodPost, "/projects", map[string]string{
		"name":        name,
		"description": description,
		"color":       color,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Project, nil
}

// CreateComment 在任务下发表评论。
func (c *Client) CreateComment(ctx context.Context, taskID uint, content string) (*Comment, error) {
	var out struct {
		Comment Comment `json:"comment"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tasks/%d/comments", taskID), map[string]string{
		"content": content,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

// ListUsers 返回全部用户（指派候选）。
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}
