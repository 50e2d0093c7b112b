package cli

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aristath/tasktracker/internal/tui"
)

var (
	tuiStore string
	tuiData  string
)

// tuiCmd runs the interactive dashboard. Logs are discarded while the
// alternate screen is up; the activity pane shows the bus events instead.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the interactive dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if tuiStore != "" {
			cfg.Store.Driver = tuiStore
		}
		if tuiData != "" {
			cfg.Store.Path = tuiData
		}

		rt, cleanup, err := bootstrap(ctx, cfg, io.Discard)
		if err != nil {
			return err
		}
		defer cleanup()

		p := tea.NewProgram(tui.New(rt.manager, rt.bus), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("running tui: %w", err)
		}
		return nil
	},
}

func init() {
	tuiCmd.Flags().StringVar(&tuiStore, "store", "", "store driver (json, sqlite)")
	tuiCmd.Flags().StringVar(&tuiData, "data", "", "snapshot file or database path")
}
