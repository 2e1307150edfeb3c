// Package main runs the inventory TUI in the local terminal.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JJCAR01/UX/internal/app"
	"github.com/JJCAR01/UX/internal/config"
	"github.com/JJCAR01/UX/internal/inventory"
	"github.com/JJCAR01/UX/internal/logging"
	"github.com/JJCAR01/UX/internal/tui"
)

const defaultLogFile = "invtui.log"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file
	path := cfg.LogFile
	if path == "" {
		path = defaultLogFile
	}
	logger, f, err := logging.NewFile(path, cfg.LogLevel, "invtui")
	if err != nil {
		return err
	}
	defer f.Close()

	client := inventory.NewClient(cfg.APIURL, inventory.WithTimeout(cfg.APITimeout), inventory.WithLogger(logger))
	ctrl := app.New(client, app.Options{
		PerPage:  cfg.ItemsPerPage,
		CacheTTL: cfg.CacheTTL(),
		Logger:   logger,
	})

	logger.Info("starting", "api", cfg.APIURL)
	model := tui.NewModel(ctrl, tui.Options{
		Teams:     cfg.Teams,
		ExportDir: cfg.ExportDir,
		Timeout:   cfg.APITimeout,
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
