package views

import (
	"context"
	"time"

	"github.com/taufiqulumam/task-management/internal/model"
	"github.com/taufiqulumam/task-management/internal/tui/client"

	tea "github.com/charmbracelet/bubbletea"
)

// LoginSuccess is emitted when the user authenticates.
type LoginSuccess struct {
	User client.User
}

// TasksLoaded carries a fresh task list from the server.
type TasksLoaded struct {
	Tasks []client.Task
}

// ProjectsLoaded carries the user's projects.
type ProjectsLoaded struct {
	Projects []client.Project
}

// TaskSynced confirms a server-side task mutation.
type TaskSynced struct {
	Task client.Task
}

// SyncFailed reports a failed mutation. The views respond by discarding
// their optimistic state and refetching.
type SyncFailed struct {
	Err error
}

// LoadError reports a failed read.
type LoadError struct {
	Err error
}

const requestTimeout = 10 * time.Second

// FetchTasks loads the task list in the background.
func FetchTasks(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		tasks, err := c.ListTasks(ctx, client.TaskFilter{})
		if err != nil {
			return LoadError{Err: err}
		}
		return TasksLoaded{Tasks: tasks}
	}
}

// FetchProjects loads the project list in the background.
func FetchProjects(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		projects, err := c.ListProjects(ctx)
		if err != nil {
			return LoadError{Err: err}
		}
		return ProjectsLoaded{Projects: projects}
	}
}

// syncTaskStatus pushes a status change to the server.
func syncTaskStatus(c *client.Client, id uint, status model.TaskStatus) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		task, err := c.UpdateTaskStatus(ctx, id, status)
		if err != nil {
			return SyncFailed{Err: err}
		}
		return TaskSynced{Task: *task}
	}
}
