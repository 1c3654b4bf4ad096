package views

import (
	"context"

	"github.com/taufiqulumam/task-management/internal/tui/client"
	"github.com/taufiqulumam/task-management/internal/tui/keys"
	"github.com/taufiqulumam/task-management/internal/tui/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loginResult struct {
	user *client.User
	err  error
}

// LoginView asks for email and password and authenticates against the server.
type LoginView struct {
	client *client.Client
	styles *styles.Styles
	keys   keys.KeyMap

	email    textinput.Model
	password textinput.Model
	focusIdx int
	busy     bool
	errMsg   string

	width  int
	height int
}

// NewLoginView creates the login form.
func NewLoginView(c *client.Client) *LoginView {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 120
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 120
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &LoginView{
		client:   c,
		styles:   styles.NewStyles(),
		keys:     keys.Default(),
		email:    email,
		password: password,
	}
}

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case loginResult:
		v.busy = false
		if msg.err != nil {
			v.errMsg = msg.err.Error()
			return v, nil
		}
		return v, func() tea.Msg { return LoginSuccess{User: *msg.user} }

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		switch msg.String() {
		case "ctrl+c":
			return v, tea.Quit
		case "tab", "shift+tab", "up", "down":
			v.focusIdx = (v.focusIdx + 1) % 2
			if v.focusIdx == 0 {
				v.password.Blur()
				return v, v.email.Focus()
			}
			v.email.Blur()
			return v, v.password.Focus()
		case "enter":
			if v.email.Value() == "" || v.password.Value() == "" {
				v.errMsg = "email and password are required"
				return v, nil
			}
			v.busy = true
			v.errMsg = ""
			return v, v.submit()
		}
	}

	var cmd tea.Cmd
	if v.focusIdx == 0 {
		v.email, cmd = v.email.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func (v *LoginView) submit() tea.Cmd {
	email, password := v.email.Value(), v.password.Value()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := v.client.Login(ctx, email, password)
		return loginResult{user: user, err: err}
	}
}

func (v *LoginView) View() string {
	title := v.styles.Title.Render("TaskBoard")
	subtitle := v.styles.TitleMuted.Render("sign in to continue")

	emailStyle := v.styles.Input
	passwordStyle := v.styles.Input
	if v.focusIdx == 0 {
		emailStyle = v.styles.InputFocused
	} else {
		passwordStyle = v.styles.InputFocused
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		emailStyle.Width(44).Render(v.email.View()),
		passwordStyle.Width(44).Render(v.password.View()),
	)

	if v.busy {
		form = lipgloss.JoinVertical(lipgloss.Left, form, v.styles.StatusBar.Render("signing in..."))
	}
	if v.errMsg != "" {
		form = lipgloss.JoinVertical(lipgloss.Left, form, v.styles.ErrorBar.Render(v.errMsg))
	}
	form = lipgloss.JoinVertical(lipgloss.Left, form,
		v.styles.Help.Render("tab: switch field • enter: sign in • ctrl+c: quit"))

	if v.width == 0 {
		return form
	}
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, form)
}
