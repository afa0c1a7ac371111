// Package wstest provides in-memory connections for exercising ws.Session
// without a network.
package wstest

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

// ErrRefused is returned by Dialer when it has no connection queued.
var ErrRefused = errors.New("connection refused")

// Dialer hands out queued Conns in order and refuses once the queue is empty.
type Dialer struct {
	mu    sync.Mutex
	queue []*Conn
	dials int
}

// NewDialer queues conns for successive Dial calls.
func NewDialer(conns ...*Conn) *Dialer {
	return &Dialer{queue: conns}
}

// Queue appends conns for later dials.
func (d *Dialer) Queue(conns ...*Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, conns...)
}

// Dials reports how many times Dial was called.
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Dial implements ws.Dialer.
func (d *Dialer) Dial(ctx context.Context, _ string) (ws.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.queue) == 0 {
		return nil, ErrRefused
	}
	c := d.queue[0]
	d.queue = d.queue[1:]
	return c, nil
}

// Conn is an in-memory server side. Push feeds frames to the client and
// Drop simulates a transport-level disconnect.
type Conn struct {
	inbound chan proto.Frame
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	written []proto.Frame
}

// NewConn builds an open connection.
func NewConn() *Conn {
	return &Conn{
		inbound: make(chan proto.Frame, 32),
		done:    make(chan struct{}),
	}
}

// Push queues a server frame; it panics if data cannot be marshalled.
func (c *Conn) Push(event string, data any) {
	frame, err := proto.NewFrame(event, data)
	if err != nil {
		panic(err)
	}
	c.inbound <- frame
}

// PushRaw queues a frame with a literal JSON payload.
func (c *Conn) PushRaw(event, data string) {
	c.inbound <- proto.Frame{Event: event, Data: []byte(data)}
}

// Drop ends the connection as if the network failed.
func (c *Conn) Drop() {
	c.once.Do(func() { close(c.done) })
}

// Closed reports whether the connection has been closed or dropped.
func (c *Conn) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Written returns a copy of the frames the client sent.
func (c *Conn) Written() []proto.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]proto.Frame, len(c.written))
	copy(out, c.written)
	return out
}

// ReadFrame implements ws.Conn. Queued frames are drained before a drop is reported.
func (c *Conn) ReadFrame(ctx context.Context) (proto.Frame, error) {
	select {
	case f := <-c.inbound:
		return f, nil
	default:
	}
	select {
	case f := <-c.inbound:
		return f, nil
	case <-c.done:
		return proto.Frame{}, io.EOF
	case <-ctx.Done():
		return proto.Frame{}, ctx.Err()
	}
}

// WriteFrame implements ws.Conn.
func (c *Conn) WriteFrame(ctx context.Context, frame proto.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.Closed() {
		return io.ErrClosedPipe
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, frame)
	return nil
}

// Close implements ws.Conn.
func (c *Conn) Close() error {
	c.Drop()
	return nil
}
