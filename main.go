package main

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/nissyi-gh/pls/internal/cli"
	"github.com/nissyi-gh/pls/internal/config"
	"github.com/nissyi-gh/pls/internal/store"
	"github.com/nissyi-gh/pls/internal/ui"
)

func main() {
	cfg, err := config.Load(os.Getenv, os.Getenv("PLS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stderr)

	s, err := store.NewTaskStore(cfg.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}

	app := &cli.App{
		Store:  s,
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
		In:     os.Stdin,
		Width:  terminalWidth,
		Copy:   clipboard.WriteAll,
		RunTUI: func() error {
			p := tea.NewProgram(ui.NewModel(s, cfg.Style), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}
	err = app.Run(os.Args[1:])
	s.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// terminalWidth returns 0 when stdout is not a terminal.
func terminalWidth() int {
	fd := os.Stdout.Fd()
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}
