// Package main is the entry point for the Copilot usage tracker TUI.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bizzkoot/copilot-tracker/internal/config"
	"github.com/bizzkoot/copilot-tracker/internal/logger"
	"github.com/bizzkoot/copilot-tracker/internal/services"
	"github.com/bizzkoot/copilot-tracker/internal/ui/dashboard"
	"github.com/bizzkoot/copilot-tracker/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init()

	manager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer manager.Stop()

	// Background polling starts immediately; ticks no-op until a login
	// has stored a customer id.
	manager.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		dashboard.New(manager),
		tea.WithAltScreen(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func printUsage() {
	fmt.Println(`copilot-tracker - GitHub Copilot premium request usage tracker

Usage:
  copilot-tracker [flags]

Flags:
  -v, --version   Print version information
  -h, --help      Show this help

Keys:
  l   Sign in via a browser window
  r   Refresh usage now
  L   Log out and clear cached data
  p   Cycle the forecast window (7/14/21 days)
  n   Toggle desktop notifications
  q   Quit

Environment:
  DATA_DIR                Data directory (default ~/.config/copilot-tracker)
  REFRESH_INTERVAL        Polling cadence, e.g. 300s or 5m (min 10s)
  PREDICTION_WINDOW_DAYS  Forecast window: 7, 14 or 21
  COPILOT_OVERAGE_RATE    Billed rate per request over the entitlement
  BROWSER_PATH            Chrome/Chromium executable for extraction
  BROWSER_HEADLESS        Set false to watch extraction sessions
  LOG_LEVEL, LOG_FILE     Logging configuration`)
}
