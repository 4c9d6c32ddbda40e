// Package ws implements internal/transport.Transport over a
// gorilla/websocket connection: a tag-plus-payload frame is a single-key
// JSON object, `{"<tag>": <payload>}`, sent as one websocket text message.
//
// Grounded on the teacher's indirect gorilla/websocket dependency (pulled in
// transitively through its module graph, never exercised directly by any
// teacher code) and, for the read-pump/write-pump goroutine split itself,
// on Seednode-partybox's Client.readPump/writePump — the only example repo
// with a concrete websocket connection handler to imitate.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mighty/server/internal/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Transport is a gorilla/websocket connection wrapped to satisfy
// transport.Transport. Outbound frames are serialized and queued onto a
// buffered channel a dedicated writer goroutine drains, so Send never
// blocks on network I/O directly; inbound frames are parsed by a reader
// goroutine and delivered on inbound.
type Transport struct {
	conn *websocket.Conn

	outbound chan outboundFrame
	inbound  chan transport.Frame

	closed chan struct{}
	err    error
}

type outboundFrame struct {
	tag     string
	payload interface{}
}

// Upgrade promotes an HTTP request to a websocket connection and wraps it
// via New, which starts the read/write pumps.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Transport, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("ws: upgrade: %w", err)
	}
	return New(conn), nil
}

// New wraps an already-established websocket connection and starts its
// read and write pump goroutines.
func New(conn *websocket.Conn) *Transport {
	t := &Transport{
		conn:     conn,
		outbound: make(chan outboundFrame, 64),
		inbound:  make(chan transport.Frame, 64),
		closed:   make(chan struct{}),
	}
	go t.readPump()
	go t.writePump()
	return t
}

func (t *Transport) Send(ctx context.Context, tag string, payload interface{}) error {
	select {
	case t.outbound <- outboundFrame{tag: tag, payload: payload}:
		return nil
	case <-t.closed:
		return fmt.Errorf("ws: send on a closed transport")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transport) Inbound() <-chan transport.Frame { return t.inbound }

func (t *Transport) Err() error { return t.err }

func (t *Transport) Close() error {
	return t.conn.Close()
}

// readPump parses one tagged frame per websocket text message. A
// non-well-formed frame (not a single-key JSON object) closes the
// connection, per §4.7's "parsing failures close the session".
func (t *Transport) readPump() {
	defer close(t.inbound)
	defer close(t.closed)
	defer t.conn.Close()

	_ = t.conn.SetReadDeadline(time.Now().Add(pongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.err = err
			return
		}
		frame, err := parseFrame(data)
		if err != nil {
			t.err = err
			return
		}
		t.inbound <- frame
	}
}

// writePump drains outbound, re-encodes each frame as its single-key JSON
// object shape, and writes it as one websocket text message; it also owns
// the periodic ping the read pump's deadline depends on.
func (t *Transport) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case fr, ok := <-t.outbound:
			if !ok {
				return
			}
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := encodeFrame(fr.tag, fr.payload)
			if err != nil {
				continue
			}
			if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-t.closed:
			return
		}
	}
}

func encodeFrame(tag string, payload interface{}) ([]byte, error) {
	inner, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ws: encode %s: %w", tag, err)
	}
	obj := map[string]json.RawMessage{tag: inner}
	return json.Marshal(obj)
}

func parseFrame(data []byte) (transport.Frame, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return transport.Frame{}, fmt.Errorf("ws: malformed frame: %w", err)
	}
	if len(obj) != 1 {
		return transport.Frame{}, fmt.Errorf("ws: frame must have exactly one tag key, got %d", len(obj))
	}
	for tag, payload := range obj {
		return transport.Frame{Tag: tag, Payload: payload}, nil
	}
	panic("unreachable")
}

var _ transport.Transport = (*Transport)(nil)
