package ws

import (
	"context"
	"encoding/json"
	"fmt"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// Conn is a single established event-stream connection.
type Conn interface {
	ReadFrame(ctx context.Context) (proto.Frame, error)
	WriteFrame(ctx context.Context, frame proto.Frame) error
	Close() error
}

// Dialer opens connections to an endpoint address.
type Dialer interface {
	Dial(ctx context.Context, addr string) (Conn, error)
}

// WebSocketDialer dials JSON-framed websocket connections.
type WebSocketDialer struct {
	// ReadLimit caps a single inbound frame in bytes. Zero keeps the library default.
	ReadLimit int64
	Header    stdhttp.Header
}

// Dial connects to addr (ws, wss, http or https URL).
func (d WebSocketDialer) Dial(ctx context.Context, addr string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, addr, &websocket.DialOptions{HTTPHeader: d.Header})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

// ReadFrame reads one message. Undecodable payloads come back as
// proto.ErrMalformedFrame and leave the connection open.
func (c *wsConn) ReadFrame(ctx context.Context) (proto.Frame, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return proto.Frame{}, err
	}
	var frame proto.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return proto.Frame{}, fmt.Errorf("%w: %v", proto.ErrMalformedFrame, err)
	}
	return frame, nil
}

func (c *wsConn) WriteFrame(ctx context.Context, frame proto.Frame) error {
	return wsjson.Write(ctx, c.conn, frame)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
