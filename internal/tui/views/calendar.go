package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/taufiqulumam/task-management/internal/tui/client"
	"github.com/taufiqulumam/task-management/internal/tui/keys"
	"github.com/taufiqulumam/task-management/internal/tui/styles"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// CalendarView groups tasks by due date on a month grid.
// Tasks without a due date are not shown here.
type CalendarView struct {
	client *client.Client
	styles *styles.Styles
	keys   keys.KeyMap

	tasks []client.Task
	month time.Time // first day of the displayed month

	errMsg string
	width  int
	height int
}

// NewCalendarView creates the calendar for the current month.
func NewCalendarView(c *client.Client) *CalendarView {
	now := time.Now()
	return &CalendarView{
		client: c,
		styles: styles.NewStyles(),
		keys:   keys.Default(),
		month:  time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
	}
}

func (v *CalendarView) Init() tea.Cmd {
	return FetchTasks(v.client)
}

// SetTasks replaces the calendar content.
func (v *CalendarView) SetTasks(tasks []client.Task) {
	v.tasks = tasks
}

// tasksOn returns the tasks due on a given day.
func (v *CalendarView) tasksOn(day time.Time) []client.Task {
	var out []client.Task
	for _, t := range v.tasks {
		if t.DueDate == nil {
			continue
		}
		due := t.DueDate.In(day.Location())
		if due.Year() == day.Year() && due.YearDay() == day.YearDay() {
			out = append(out, t)
		}
	}
	return out
}

func (v *CalendarView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		switch {
		case key.Matches(msg, v.keys.PrevMonth):
			v.month = v.month.AddDate(0, -1, 0)
		case key.Matches(msg, v.keys.NextMonth):
			v.month = v.month.AddDate(0, 1, 0)
		case key.Matches(msg, v.keys.Refresh):
			return v, FetchTasks(v.client)
		}
	}
	return v, nil
}

func (v *CalendarView) View() string {
	title := v.styles.Title.Render(v.month.Format("January 2006"))

	cellWidth := 14
	header := make([]string, 7)
	for i, d := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		header[i] = v.styles.ColumnHeader.Width(cellWidth).Render(d)
	}

	// Walk the grid from the Monday on or before the 1st.
	first := v.month
	offset := (int(first.Weekday()) + 6) % 7
	day := first.AddDate(0, 0, -offset)

	var weeks []string
	weeks = append(weeks, lipgloss.JoinHorizontal(lipgloss.Top, header...))
	for day.Before(first.AddDate(0, 1, 0)) {
		cells := make([]string, 7)
		for i := 0; i < 7; i++ {
			cells[i] = v.renderDay(day, cellWidth)
			day = day.AddDate(0, 0, 1)
		}
		weeks = append(weeks, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	bar := ""
	if v.errMsg != "" {
		bar = v.styles.ErrorBar.Render(v.errMsg)
	}
	help := v.styles.Help.Render("p/n: month • r: refresh • tab: view • q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(weeks, "\n"), bar, help)
}

func (v *CalendarView) renderDay(day time.Time, width int) string {
	num := fmt.Sprintf("%2d", day.Day())
	if day.Month() != v.month.Month() {
		num = v.styles.TitleMuted.Render(num)
	}

	lines := []string{num}
	for i, t := range v.tasksOn(day) {
		if i == 2 {
			lines = append(lines, v.styles.TitleMuted.Render("…"))
			break
		}
		mark := lipgloss.NewStyle().
			Foreground(styles.StatusColor(t.Status)).
			Render("•")
		lines = append(lines, mark+" "+truncate(t.Title, width-3))
	}

	return v.styles.Column.Width(width).Height(4).Render(strings.Join(lines, "\n"))
}
