package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/davecgh/go-spew/spew"

	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/engine"
	"github.com/mighty/server/internal/room"
)

type screenState int

const (
	stateRoomList screenState = iota
	stateCreateRoom
	stateLobby
	stateActiveGame
)

// roomInfoFrame mirrors internal/session's outbound "room_info" shape; kept
// local (rather than importing internal/session) since the client only
// needs to decode it, not build one.
type roomInfoFrame struct {
	ID          room.RoomID   `json:"id"`
	Name        string        `json:"name"`
	Users       []room.UserID `json:"users"`
	Head        room.UserID   `json:"head"`
	IsGame      bool          `json:"is_game"`
	ObserverCnt int           `json:"observer_cnt"`
}

// Model is the debug client's bubbletea state: which screen is active, the
// latest room listing, the active room's lobby/game state, and one text
// input used both for the create-room form and for issuing game commands.
type Model struct {
	client *Client

	state   screenState
	err     error
	message string

	rooms    []room.Info
	selected int

	input string

	roomInfo  roomInfoFrame
	gameState engine.State
	haveGame  bool
	rawDump   bool
}

func NewModel(client *Client) Model {
	return Model{client: client, state: stateRoomList}
}

func (m Model) Init() tea.Cmd {
	return m.client.listRoomsCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		return m, nil

	case roomsMsg:
		m.rooms = msg
		if m.selected >= len(m.rooms) {
			m.selected = 0
		}
		return m, nil

	case roomCreatedMsg:
		return m, m.client.joinRoomCmd(msg.id)

	case roomJoinedMsg:
		m.state = stateLobby
		m.err = nil
		return m, m.client.waitForFrameCmd()

	case frameMsg:
		m.applyFrame(msg)
		return m, m.client.waitForFrameCmd()

	case disconnectedMsg:
		m.message = "disconnected from room"
		m.state = stateRoomList
		m.haveGame = false
		return m, m.client.listRoomsCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applyFrame(fr frameMsg) {
	switch fr.tag {
	case "room_info":
		var info roomInfoFrame
		if json.Unmarshal(fr.payload, &info) == nil {
			m.roomInfo = info
			if !info.IsGame {
				m.state = stateLobby
			}
		}
	case "game_state":
		var st engine.State
		if json.Unmarshal(fr.payload, &st) == nil {
			m.gameState = st
			m.haveGame = true
			m.state = stateActiveGame
		}
	case "chat":
		var pair [2]json.RawMessage
		if json.Unmarshal(fr.payload, &pair) == nil {
			var text string
			var from room.UserID
			_ = json.Unmarshal(pair[0], &text)
			_ = json.Unmarshal(pair[1], &from)
			m.message = fmt.Sprintf("%s: %s", from, text)
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.state == stateRoomList {
			return m, tea.Quit
		}
	}

	if m.state == stateActiveGame && msg.Type == tea.KeyCtrlD {
		m.rawDump = !m.rawDump
		return m, nil
	}

	switch m.state {
	case stateRoomList:
		return m.handleRoomListKey(msg)
	case stateCreateRoom:
		return m.handleCreateRoomKey(msg)
	case stateLobby, stateActiveGame:
		return m.handleSessionKey(msg)
	}
	return m, nil
}

func (m Model) handleRoomListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.rooms)-1 {
			m.selected++
		}
	case "c":
		m.state = stateCreateRoom
		m.input = ""
	case "r":
		return m, m.client.listRoomsCmd()
	case "enter":
		if len(m.rooms) > 0 {
			return m, m.client.joinRoomCmd(m.rooms[m.selected].ID)
		}
	case "o":
		if len(m.rooms) > 0 {
			return m, m.client.observeRoomCmd(m.rooms[m.selected].ID)
		}
	}
	return m, nil
}

func (m Model) handleCreateRoomKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		name := m.input
		if name == "" {
			name = "table"
		}
		return m, m.client.createRoomCmd(name)
	case tea.KeyEsc:
		m.state = stateRoomList
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// handleSessionKey reads a single-line command typed into m.input. Commands:
//
//	start
//	pledge pass | pledge <spade|diamond|heart|clover> <amount>
//	go <spade|diamond|heart|clover> <rank>
//	chat <text>
func (m Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		line := strings.TrimSpace(m.input)
		m.input = ""
		if line == "" {
			return m, nil
		}
		return m, m.dispatchLine(line)
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyEsc:
		m.client.Close()
		m.state = stateRoomList
		m.haveGame = false
		return m, m.client.listRoomsCmd()
	case tea.KeyRunes, tea.KeySpace:
		if msg.Type == tea.KeySpace {
			m.input += " "
		} else {
			m.input += string(msg.Runes)
		}
	}
	return m, nil
}

func (m Model) dispatchLine(line string) tea.Cmd {
	fields := strings.Fields(line)
	switch fields[0] {
	case "start":
		return m.client.sendCmd("start", nil)
	case "chat":
		return m.client.sendCmd("chat", strings.TrimPrefix(line, "chat "))
	case "pledge":
		if len(fields) >= 2 && fields[1] == "pass" {
			return m.client.sendCmd("command", map[string]interface{}{"Pledge": nil})
		}
		if len(fields) == 3 {
			amount, err := strconv.Atoi(fields[2])
			if err == nil {
				return m.client.sendCmd("command", map[string]interface{}{
					"Pledge": []interface{}{fields[1], amount},
				})
			}
		}
	case "go":
		if len(fields) == 3 {
			rank, err := strconv.Atoi(fields[2])
			if err == nil {
				return m.client.sendCmd("command", map[string]interface{}{
					"Go": []interface{}{
						map[string]interface{}{"joker": false, "pattern": fields[1], "rank": rank},
						0,
						false,
					},
				})
			}
		}
	}
	return nil
}

func (m Model) View() string {
	var b strings.Builder
	switch m.state {
	case stateRoomList:
		b.WriteString(titleStyle.Render("Mighty — rooms") + "\n\n")
		for i, info := range m.rooms {
			cursor := "  "
			if i == m.selected {
				cursor = focusedStyle.Render("> ")
			}
			status := "lobby"
			if info.IsGame {
				status = "in progress"
			}
			fmt.Fprintf(&b, "%s%s  (%d seated, %d observing, %s)\n", cursor, info.Name, seatedCount(info), info.ObserverCnt, status)
		}
		b.WriteString(helpStyle.Render("\nenter: join  o: observe  c: create  r: refresh  q: quit"))
	case stateCreateRoom:
		b.WriteString(titleStyle.Render("Create room") + "\n\n")
		fmt.Fprintf(&b, "name: %s\n", m.input)
		b.WriteString(helpStyle.Render("\nenter: create  esc: cancel"))
	case stateLobby:
		b.WriteString(titleStyle.Render("Lobby: "+m.roomInfo.Name) + "\n\n")
		for i, u := range m.roomInfo.Users {
			mark := " "
			if u == m.roomInfo.Head {
				mark = "*"
			}
			fmt.Fprintf(&b, "seat %d%s: %s\n", i, mark, u)
		}
		b.WriteString(helpStyle.Render("\ntype a command and press enter (e.g. \"start\")  esc: leave"))
		fmt.Fprintf(&b, "\n> %s", m.input)
	case stateActiveGame:
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s — %s", m.roomInfo.Name, m.gameState.Phase)) + "\n\n")
		if m.rawDump {
			b.WriteString(spew.Sdump(m.gameState))
		} else {
			b.WriteString(renderHand(m.gameState) + "\n")
			b.WriteString(renderTrick(m.gameState) + "\n")
		}
		b.WriteString(helpStyle.Render("\npledge <suit> <n> | pledge pass | go <suit> <rank> | chat <text> | ctrl+d: raw state  esc: leave"))
		fmt.Fprintf(&b, "\n> %s", m.input)
	}
	if m.message != "" {
		b.WriteString("\n" + m.message)
	}
	if m.err != nil {
		b.WriteString("\n" + errStyle.Render(m.err.Error()))
	}
	return b.String()
}

func seatedCount(info room.Info) int {
	n := 0
	for _, u := range info.Users {
		if u != "" {
			n++
		}
	}
	return n
}

func renderHand(st engine.State) string {
	var cards []string
	for _, seatHand := range st.Hand {
		for _, c := range seatHand {
			cards = append(cards, cardString(c))
		}
	}
	if len(cards) == 0 {
		return yourHandStyle.Render("(no hand visible)")
	}
	return yourHandStyle.Render("hand: " + strings.Join(cards, " "))
}

func renderTrick(st engine.State) string {
	var cards []string
	for _, c := range st.PlacedCards {
		cards = append(cards, cardString(c))
	}
	return trickStyle.Render(fmt.Sprintf("trick: %s  (to play: seat %d)", strings.Join(cards, " "), st.CurrentUser))
}

func cardString(c card.Card) string {
	return c.String()
}
