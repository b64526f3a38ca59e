package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"codeberg.org/moodcanvas/server/internal/tui"
)

func main() {
	if !term.IsTerminal(os.Stdout.Fd()) {
		fmt.Println("moodcanvas needs an interactive terminal")
		os.Exit(1)
	}

	env := getenv("MOODCANVAS_ENV", "development")
	apiEndpoint := getenv("MOODCANVAS_API_ENDPOINT", "http://localhost:8080")
	wsEndpoint := getenv("MOODCANVAS_WS_ENDPOINT", "ws://localhost:8080/api/v1/ws")
	userID := getenv("MOODCANVAS_USER", getenv("USER", "guest"))

	width, height, err := term.GetSize(os.Stdout.Fd())
	if err != nil {
		width, height = 80, 24
	}

	app := tui.NewApp(env, userID, apiEndpoint, wsEndpoint, width, height)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		fmt.Printf("error running moodcanvas: %v\n", err)
		os.Exit(1)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
