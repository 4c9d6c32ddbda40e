// client.go talks to a running mightysrv over plain HTTP (room listing and
// creation) and a gorilla/websocket dial (the play/observe/list sessions),
// mirroring pkg/client.PokerClient's role as the thin backend wrapper a
// bubbletea Model drives through tea.Cmd funcs rather than touching the
// network directly.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mighty/server/internal/room"
	"github.com/mighty/server/internal/rule"
)

// Client is the debug client's connection to one mightysrv instance: an
// http.Client for the REST-ish /rooms endpoints, and (once joined or
// observing) one live websocket carrying tagged frames.
type Client struct {
	baseURL string
	userID  room.UserID
	http    *http.Client

	conn   *websocket.Conn
	frames chan frame
}

type frame struct {
	tag     string
	payload json.RawMessage
}

// NewClient constructs a Client bound to a mightysrv listening at baseURL
// (e.g. "http://127.0.0.1:7777") for the given user id.
func NewClient(baseURL string, userID room.UserID) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ListRooms fetches the current lobby snapshot via GET /rooms.
func (c *Client) ListRooms(ctx context.Context) ([]room.Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rooms", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list rooms: server returned %s", resp.Status)
	}
	var rooms []room.Info
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom creates a room via POST /rooms with the caller's user as head,
// using the default rule set.
func (c *Client) CreateRoom(ctx context.Context, name string) (room.RoomID, error) {
	body, err := json.Marshal(struct {
		Name string      `json:"name"`
		Head room.UserID `json:"head"`
		Rule *rule.Rule  `json:"rule,omitempty"`
	}{Name: name, Head: c.userID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create room: server returned %s", resp.Status)
	}
	var created struct {
		ID room.RoomID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// wsURL rewrites baseURL's scheme to ws(s) and appends path with the given
// query parameters.
func (c *Client) wsURL(path string, query url.Values) string {
	u := c.baseURL + path
	if strings.HasPrefix(u, "https://") {
		u = "wss://" + strings.TrimPrefix(u, "https://")
	} else {
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// JoinRoom dials /ws/play as a seated player.
func (c *Client) JoinRoom(id room.RoomID) error {
	return c.dial("/ws/play", url.Values{"room": {string(id)}, "user": {string(c.userID)}})
}

// ObserveRoom dials /ws/observe as a spectator.
func (c *Client) ObserveRoom(id room.RoomID) error {
	return c.dial("/ws/observe", url.Values{"room": {string(id)}, "user": {string(c.userID)}})
}

func (c *Client) dial(path string, query url.Values) error {
	conn, _, err := websocket.DefaultDialer.Dial(c.wsURL(path, query), nil)
	if err != nil {
		return err
	}
	c.conn = conn
	c.frames = make(chan frame, 32)
	go c.readPump()
	return nil
}

// Close tears down the active websocket connection, if any.
func (c *Client) Close() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) readPump() {
	conn := c.conn
	defer close(c.frames)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			continue
		}
		for tag, payload := range obj {
			c.frames <- frame{tag: tag, payload: payload}
			break
		}
	}
}

// Send writes one tagged frame to the active websocket connection.
func (c *Client) Send(tag string, payload interface{}) error {
	if c.conn == nil {
		return fmt.Errorf("client: no active session")
	}
	inner, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(map[string]json.RawMessage{tag: inner})
}
