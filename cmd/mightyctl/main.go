// Command mightyctl is an optional interactive debug client for mightysrv:
// a bubbletea TUI that lists/creates rooms over plain HTTP and plays a seat
// (or observes) over the same tagged-websocket protocol a real client would
// speak, rendered through lipgloss styles.
//
// Grounded on cmd/pokerctl/main.go's flag set and cmd/client's
// bubbletea-program bootstrap (pkg/ui.NewPokerUI + tea.NewProgram), with the
// BisonRelay/grpc connection setup replaced by a bare HTTP base URL and a
// player id, since this repo's transport has neither concept.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mighty/server/internal/room"
)

func main() {
	var (
		serverURL string
		userID    string
	)
	flag.StringVar(&serverURL, "url", "http://127.0.0.1:8080", "Base URL of a running mightysrv")
	flag.StringVar(&userID, "id", "", "Player id to connect as (required)")
	flag.Parse()

	if userID == "" {
		fmt.Fprintln(os.Stderr, "mightyctl: -id is required")
		os.Exit(2)
	}

	client := NewClient(serverURL, room.UserID(userID))
	if _, err := tea.NewProgram(NewModel(client)).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mightyctl: %v\n", err)
		os.Exit(1)
	}
}
