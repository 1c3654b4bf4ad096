package tui

import (
	"github.com/taufiqulumam/task-management/internal/tui/client"
	"github.com/taufiqulumam/task-management/internal/tui/styles"
	"github.com/taufiqulumam/task-management/internal/tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Currently active view
type View int

const (
	ViewLogin View = iota
	ViewBoard
	ViewList
	ViewCalendar
)

// App is the top-level model. It starts on the login form and switches to
// the workspace (board / list / calendar) once a session is established.
type App struct {
	client      *client.Client
	currentView View
	user        *client.User

	login    *views.LoginView
	board    *views.BoardView
	list     *views.ListView
	calendar *views.CalendarView

	styles *styles.Styles
	width  int
	height int
}

// NewApp creates the application against an API client.
func NewApp(c *client.Client) *App {
	return &App{
		client:      c,
		currentView: ViewLogin,
		login:       views.NewLoginView(c),
		board:       views.NewBoardView(c),
		list:        views.NewListView(c),
		calendar:    views.NewCalendarView(c),
		styles:      styles.NewStyles(),
	}
}

func (a *App) Init() tea.Cmd {
	return a.login.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.login.Update(msg)
		a.board.Update(msg)
		a.list.Update(msg)
		a.calendar.Update(msg)
		return a, nil

	case views.LoginSuccess:
		a.user = &msg.User
		a.currentView = ViewBoard
		return a, views.FetchTasks(a.client)

	case views.TasksLoaded, views.LoadError:
		// All workspace views render the same task list.
		a.board.Update(msg)
		a.list.Update(msg)
		a.calendar.Update(msg)
		return a, nil

	case tea.KeyMsg:
		if a.currentView != ViewLogin {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "tab":
				a.currentView = a.nextView()
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewLogin:
		_, cmd = a.login.Update(msg)
	case ViewBoard:
		_, cmd = a.board.Update(msg)
	case ViewList:
		_, cmd = a.list.Update(msg)
	case ViewCalendar:
		_, cmd = a.calendar.Update(msg)
	}
	return a, cmd
}

func (a *App) nextView() View {
	switch a.currentView {
	case ViewBoard:
		return ViewList
	case ViewList:
		return ViewCalendar
	default:
		return ViewBoard
	}
}

func (a *App) View() string {
	switch a.currentView {
	case ViewBoard:
		return a.workspaceChrome("board", a.board.View())
	case ViewList:
		return a.workspaceChrome("list", a.list.View())
	case ViewCalendar:
		return a.workspaceChrome("calendar", a.calendar.View())
	}
	return a.login.View()
}

func (a *App) workspaceChrome(name, content string) string {
	who := ""
	if a.user != nil {
		who = a.user.Name
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Left,
		a.styles.Title.Render("TaskBoard"),
		a.styles.TitleMuted.Render(" • "+name),
		a.styles.TitleMuted.Render(" • "+who),
	)
	return lipgloss.JoinVertical(lipgloss.Left, bar, content)
}
