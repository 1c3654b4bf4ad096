package views

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taufiqulumam/task-management/internal/tui/client"
	"github.com/taufiqulumam/task-management/internal/tui/keys"
	"github.com/taufiqulumam/task-management/internal/tui/styles"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ListView renders tasks as a flat list with a text filter.
// The filter only narrows the already-fetched list.
type ListView struct {
	client *client.Client
	styles *styles.Styles
	keys   keys.KeyMap

	tasks  []client.Task
	cursor int

	filtering bool
	filter    textinput.Model

	errMsg string
	width  int
	height int
}

// NewListView creates the list view.
func NewListView(c *client.Client) *ListView {
	filter := textinput.New()
	filter.Placeholder = "filter by title"
	filter.CharLimit = 80

	return &ListView{
		client: c,
		styles: styles.NewStyles(),
		keys:   keys.Default(),
		filter: filter,
	}
}

func (v *ListView) Init() tea.Cmd {
	return FetchTasks(v.client)
}

// SetTasks replaces the list content, newest first.
func (v *ListView) SetTasks(tasks []client.Task) {
	v.tasks = tasks
	sort.SliceStable(v.tasks, func(i, j int) bool {
		return v.tasks[i].CreatedAt.After(v.tasks[j].CreatedAt)
	})
	v.clampCursor()
}

// visible returns the tasks matching the title filter.
func (v *ListView) visible() []client.Task {
	needle := strings.ToLower(strings.TrimSpace(v.filter.Value()))
	if needle == "" {
		return v.tasks
	}
	var out []client.Task
	for _, t := range v.tasks {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			out = append(out, t)
		}
	}
	return out
}

func (v *ListView) clampCursor() {
	n := len(v.visible())
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

func (v *ListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case TasksLoaded:
		v.SetTasks(msg.Tasks)
		v.errMsg = ""
		return v, nil

	case LoadError:
		v.errMsg = msg.Err.Error()
		return v, nil

	case tea.KeyMsg:
		if v.filtering {
			switch msg.String() {
			case "enter", "esc":
				v.filtering = false
				v.filter.Blur()
				v.clampCursor()
				return v, nil
			}
			var cmd tea.Cmd
			v.filter, cmd = v.filter.Update(msg)
			v.clampCursor()
			return v, cmd
		}

		switch {
		case key.Matches(msg, v.keys.Up):
			if v.cursor > 0 {
				v.cursor--
			}
		case key.Matches(msg, v.keys.Down):
			if v.cursor < len(v.visible())-1 {
				v.cursor++
			}
		case msg.String() == "/":
			v.filtering = true
			return v, v.filter.Focus()
		case key.Matches(msg, v.keys.Refresh):
			return v, FetchTasks(v.client)
		}
	}
	return v, nil
}

func (v *ListView) View() string {
	visible := v.visible()

	rows := make([]string, 0, len(visible)+2)
	for i, t := range visible {
		statusTag := lipgloss.NewStyle().
			Foreground(styles.StatusColor(t.Status)).
			Render(fmt.Sprintf("%-11s", t.Status))
		priorityTag := lipgloss.NewStyle().
			Foreground(styles.PriorityColor(t.Priority)).
			Render(fmt.Sprintf("%-6s", t.Priority))

		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format("Jan 02")
		}
		line := fmt.Sprintf("%s %s %-40s %s", statusTag, priorityTag, truncate(t.Title, 40), due)

		style := v.styles.Card
		if i == v.cursor {
			style = v.styles.CardSelected
		}
		rows = append(rows, style.Render(line))
	}
	if len(rows) == 0 {
		rows = append(rows, v.styles.TitleMuted.Render("no tasks"))
	}

	var bar string
	if v.filtering {
		bar = v.styles.InputFocused.Render(v.filter.View())
	} else if v.filter.Value() != "" {
		bar = v.styles.StatusBar.Render("filter: " + v.filter.Value())
	}
	if v.errMsg != "" {
		bar = v.styles.ErrorBar.Render(v.errMsg)
	}

	help := v.styles.Help.Render("↑/↓: task • /: filter • r: refresh • tab: view • q: quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Tasks"),
		strings.Join(rows, "\n"),
		bar,
		help,
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
