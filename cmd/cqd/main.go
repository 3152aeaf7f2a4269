// Package main is the entry point for the CPA Quota Dashboard application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/doowtsen/cpa-quota-dashboard/internal/app"
	cfgpkg "github.com/doowtsen/cpa-quota-dashboard/internal/config"
	"github.com/doowtsen/cpa-quota-dashboard/internal/logger"
	"github.com/doowtsen/cpa-quota-dashboard/internal/services"
	configtab "github.com/doowtsen/cpa-quota-dashboard/internal/ui/tabs/config"
	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/tabs/history"
	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/tabs/info"
	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/tabs/logs"
	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/tabs/quota"
	"github.com/doowtsen/cpa-quota-dashboard/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	// Run the application
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := cfgpkg.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Route logs away from the terminal before the TUI takes over
	if cfg.LogFilePath != "" {
		logger.SetupFile(cfg.LogFilePath)
	}

	// 3. Initialize the service manager
	// This wires the management client, the quota service and the database
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 4. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 5. Initialize tabs with shared state and services
	// Each tab receives the shared application state for consistent data access
	state := model.GetState()
	tabs := []app.Tab{
		quota.New(state, svcManager),     // Tab 0: Quota - per-provider quota panes
		history.New(state, svcManager),   // Tab 1: History - stored quota snapshots
		configtab.New(state, svcManager), // Tab 2: Config - service YAML editor
		logs.New(state, svcManager),      // Tab 3: Logs - application log tail
		info.New(state, svcManager),      // Tab 4: Info - configuration and app info
	}
	model.SetTabs(tabs)

	// 6. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 7. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer (full terminal)
		tea.WithMouseCellMotion(), // Enable mouse support for selection
	)

	// 8. Handle signals in a separate goroutine
	go func() {
		<-sigChan
		// Send quit message to the program
		p.Send(tea.Quit())
	}()

	// 9. Run the TUI program
	// This blocks until the user quits or an error occurs
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`CPA Quota Dashboard - quota monitor for a local CLIProxyAPI service

Usage:
  cqd [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-5             Switch between tabs (Quota, History, Config, Logs, Info)
  Tab/Shift+Tab   Navigate between tabs
  h/l             Focus previous/next provider pane
  j/k, Up/Down    Navigate lists
  a               Toggle paged/all entries
  v               Cycle pane view
  s               Toggle Antigravity model scope
  Enter           Refetch the selected entry
  r               Refresh all quotas
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  CPA_BASE_URL            Service base URL (default: http://127.0.0.1:8317)
  CPA_MANAGEMENT_KEY      Management API key
  CPA_CONFIG_PATH         Service config.yaml path
  CPA_AUTH_DIR            Service credential directory
  DATABASE_PATH           SQLite database path
  LOG_FILE                Log file path (logging disabled when unset)
  QUOTA_REFRESH_INTERVAL  Quota polling interval (default: 5m)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/cpa-quota-dashboard/.env
  - ~/.cli-proxy-api/.env`)
}
