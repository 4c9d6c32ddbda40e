// commands.go is this client's CommandDispatcher equivalent: every network
// operation the Model can trigger is wrapped as a tea.Cmd returning one of
// the message types below, so Update never blocks on I/O itself.
package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mighty/server/internal/room"
)

type errMsg struct{ err error }

type roomsMsg []room.Info

type roomJoinedMsg struct {
	id room.RoomID
}

// roomCreatedMsg reports a successful POST /rooms; the creator is already
// seated at seat 0 by Hub.MakeRoom, so the Model still needs to dial
// /ws/play for it separately — created is not the same as connected.
type roomCreatedMsg struct {
	id room.RoomID
}

// frameMsg carries one raw tagged frame received over the active websocket,
// handed to the Model for tag-specific decoding (room_info/game_state/chat).
type frameMsg frame

// disconnectedMsg reports that the active websocket's read pump ended.
type disconnectedMsg struct{}

func (d *Client) listRoomsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rooms, err := d.ListRooms(ctx)
		if err != nil {
			return errMsg{err}
		}
		return roomsMsg(rooms)
	}
}

func (d *Client) createRoomCmd(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		id, err := d.CreateRoom(ctx, name)
		if err != nil {
			return errMsg{err}
		}
		return roomCreatedMsg{id: id}
	}
}

func (d *Client) joinRoomCmd(id room.RoomID) tea.Cmd {
	return func() tea.Msg {
		if err := d.JoinRoom(id); err != nil {
			return errMsg{err}
		}
		return roomJoinedMsg{id: id}
	}
}

func (d *Client) observeRoomCmd(id room.RoomID) tea.Cmd {
	return func() tea.Msg {
		if err := d.ObserveRoom(id); err != nil {
			return errMsg{err}
		}
		return roomJoinedMsg{id: id}
	}
}

// waitForFrameCmd blocks on the active websocket's frame channel and
// re-issues itself via the Model so the read loop never stalls the UI.
func (d *Client) waitForFrameCmd() tea.Cmd {
	return func() tea.Msg {
		fr, ok := <-d.frames
		if !ok {
			return disconnectedMsg{}
		}
		return frameMsg(fr)
	}
}

func (d *Client) sendCmd(tag string, payload interface{}) tea.Cmd {
	return func() tea.Msg {
		if err := d.Send(tag, payload); err != nil {
			return errMsg{err}
		}
		return nil
	}
}
