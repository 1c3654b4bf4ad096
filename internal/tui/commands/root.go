package commands

import (
	"fmt"

	"github.com/taufiqulumam/task-management/internal/tui"
	"github.com/taufiqulumam/task-management/internal/tui/client"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "A terminal client for the TaskBoard server",
	Long: `taskboard is a terminal UI for the TaskBoard task-tracking server.
Browse your tasks as a kanban board, a list or a calendar, and move
tasks between statuses without leaving the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(serverURL)
		if err != nil {
			return fmt.Errorf("init client: %w", err)
		}

		app := tui.NewApp(c)
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run ui: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskboard %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the TaskBoard API server")
	rootCmd.AddCommand(versionCmd)
}
