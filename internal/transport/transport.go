// Package transport defines the narrow capability a session adapter needs
// from a live connection: send a tagged frame, receive tagged frames, and
// observe when the connection has gone away. internal/transport/ws supplies
// the only implementation; internal/session depends only on this interface
// so it never needs to know about websockets.
package transport

import "context"

// Frame is one self-delimited tag-plus-payload record, per the wire protocol
// (tagged JSON over a gorilla/websocket text message). Payload is whatever
// encoding/json produced or will consume for the given Tag.
type Frame struct {
	Tag     string
	Payload []byte
}

// Transport is one connection's duplex frame stream. Implementations must be
// safe for concurrent Send calls from multiple goroutines (a session adapter
// may fan in room broadcasts from its own actor loop while also relaying a
// caller's direct request), but Inbound need only ever be read by the
// adapter that owns this Transport.
type Transport interface {
	// Send encodes payload as JSON and writes it out tagged with tag. Returns
	// ctx.Err() if ctx is done before the write completes.
	Send(ctx context.Context, tag string, payload interface{}) error

	// Inbound is closed when the underlying connection is gone; a parse
	// failure on a received frame also closes it, with the reason available
	// from Err, not as a panic.
	Inbound() <-chan Frame

	// Err returns the reason Inbound closed, once it has. Nil before closing
	// or on a clean close.
	Err() error

	// Close tears down the underlying connection.
	Close() error
}
