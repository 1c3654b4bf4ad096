package views

import (
	"fmt"
	"strings"

	"github.com/taufiqulumam/task-management/internal/model"
	"github.com/taufiqulumam/task-management/internal/tui/client"
	"github.com/taufiqulumam/task-management/internal/tui/keys"
	"github.com/taufiqulumam/task-management/internal/tui/styles"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// BoardView renders tasks as a kanban board, one column per status.
//
// Status moves are optimistic: the card jumps to the target column
// immediately and the server is updated in the background. If the update
// fails, the local change is discarded and the list is refetched.
type BoardView struct {
	client *client.Client
	styles *styles.Styles
	keys   keys.KeyMap

	tasks    []client.Task
	statuses []model.TaskStatus

	column int
	cursor int

	// In-memory filter over the already-fetched list. Changing it never
	// triggers a request.
	priorityFilter model.TaskPriority

	pendingSyncs int
	errMsg       string

	width  int
	height int
}

// NewBoardView creates the kanban board.
func NewBoardView(c *client.Client) *BoardView {
	return &BoardView{
		client:   c,
		styles:   styles.NewStyles(),
		keys:     keys.Default(),
		statuses: model.Statuses(),
	}
}

func (v *BoardView) Init() tea.Cmd {
	return FetchTasks(v.client)
}

// SetTasks replaces the board content.
func (v *BoardView) SetTasks(tasks []client.Task) {
	v.tasks = tasks
	v.clampCursor()
}

// columnTasks returns the tasks visible in one column after filtering.
func (v *BoardView) columnTasks(status model.TaskStatus) []client.Task {
	var out []client.Task
	for _, t := range v.tasks {
		if t.Status != status {
			continue
		}
		if v.priorityFilter != "" && t.Priority != v.priorityFilter {
			continue
		}
		out = append(out, t)
	}
	return out
}

// selectedTask returns the task under the cursor, or nil for an empty column.
func (v *BoardView) selectedTask() *client.Task {
	col := v.columnTasks(v.statuses[v.column])
	if len(col) == 0 || v.cursor >= len(col) {
		return nil
	}
	return &col[v.cursor]
}

// moveSelected shifts the selected task by delta columns, applying the new
// status locally before the server round-trip.
func (v *BoardView) moveSelected(delta int) tea.Cmd {
	task := v.selectedTask()
	if task == nil {
		return nil
	}
	target := v.column + delta
	if target < 0 || target >= len(v.statuses) {
		return nil
	}

	newStatus := v.statuses[target]
	v.applyLocalStatus(task.ID, newStatus)
	v.column = target
	v.cursor = v.indexOf(task.ID, newStatus)
	v.pendingSyncs++
	return syncTaskStatus(v.client, task.ID, newStatus)
}

// applyLocalStatus mutates the in-memory copy of a task.
func (v *BoardView) applyLocalStatus(taskID uint, status model.TaskStatus) {
	for i := range v.tasks {
		if v.tasks[i].ID == taskID {
			v.tasks[i].Status = status
			return
		}
	}
}

// indexOf finds a task's row inside a column.
func (v *BoardView) indexOf(taskID uint, status model.TaskStatus) int {
	for i, t := range v.columnTasks(status) {
		if t.ID == taskID {
			return i
		}
	}
	return 0
}

// cyclePriorityFilter walks all -> LOW -> MEDIUM -> HIGH -> URGENT -> all.
func (v *BoardView) cyclePriorityFilter() {
	order := model.Priorities()
	if v.priorityFilter == "" {
		v.priorityFilter = order[0]
	} else {
		next := ""
		for i, p := range order {
			if p == v.priorityFilter && i+1 < len(order) {
				next = string(order[i+1])
				break
			}
		}
		v.priorityFilter = model.TaskPriority(next)
	}
	v.clampCursor()
}

func (v *BoardView) clampCursor() {
	n := len(v.columnTasks(v.statuses[v.column]))
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

func (v *BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case TasksLoaded:
		v.SetTasks(msg.Tasks)
		v.errMsg = ""
		return v, nil

	case TaskSynced:
		if v.pendingSyncs > 0 {
			v.pendingSyncs--
		}
		// Adopt the authoritative copy (completed_at is derived server-side).
		for i := range v.tasks {
			if v.tasks[i].ID == msg.Task.ID {
				v.tasks[i] = msg.Task
				break
			}
		}
		return v, nil

	case SyncFailed:
		if v.pendingSyncs > 0 {
			v.pendingSyncs--
		}
		v.errMsg = msg.Err.Error()
		// The optimistic change is stale now. Refetch and let the server win.
		return v, FetchTasks(v.client)

	case LoadError:
		v.errMsg = msg.Err.Error()
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			if v.cursor > 0 {
				v.cursor--
			}
		case key.Matches(msg, v.keys.Down):
			if v.cursor < len(v.columnTasks(v.statuses[v.column]))-1 {
				v.cursor++
			}
		case key.Matches(msg, v.keys.Left):
			if v.column > 0 {
				v.column--
				v.clampCursor()
			}
		case key.Matches(msg, v.keys.Right):
			if v.column < len(v.statuses)-1 {
				v.column++
				v.clampCursor()
			}
		case key.Matches(msg, v.keys.MoveLeft):
			return v, v.moveSelected(-1)
		case key.Matches(msg, v.keys.MoveRight):
			return v, v.moveSelected(1)
		case key.Matches(msg, v.keys.Filter):
			v.cyclePriorityFilter()
		case key.Matches(msg, v.keys.Refresh):
			return v, FetchTasks(v.client)
		}
	}
	return v, nil
}

func (v *BoardView) View() string {
	colWidth := 24
	if v.width > 0 {
		if w := v.width/len(v.statuses) - 2; w > 16 {
			colWidth = w
		}
	}

	columns := make([]string, 0, len(v.statuses))
	for colIdx, status := range v.statuses {
		tasks := v.columnTasks(status)
		header := v.styles.ColumnHeader.
			Foreground(styles.StatusColor(status)).
			Render(fmt.Sprintf("%s (%d)", status, len(tasks)))

		rows := []string{header}
		for i, t := range tasks {
			style := v.styles.Card
			if colIdx == v.column && i == v.cursor {
				style = v.styles.CardSelected
			}
			marker := lipgloss.NewStyle().
				Foreground(styles.PriorityColor(t.Priority)).
				Render("●")
			rows = append(rows, style.MaxWidth(colWidth).Render(marker+" "+t.Title))
		}

		colStyle := v.styles.Column
		if colIdx == v.column {
			colStyle = v.styles.ColumnFocus
		}
		columns = append(columns, colStyle.Width(colWidth).Render(strings.Join(rows, "\n")))
	}

	board := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	status := "filter: all"
	if v.priorityFilter != "" {
		status = "filter: " + string(v.priorityFilter)
	}
	if v.pendingSyncs > 0 {
		status += " • syncing..."
	}
	bar := v.styles.StatusBar.Render(status)
	if v.errMsg != "" {
		bar = v.styles.ErrorBar.Render(v.errMsg)
	}

	help := v.styles.Help.Render("←/→: column • ↑/↓: task • [/]: move task • f: filter • r: refresh • tab: view • q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, board, bar, help)
}
