package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("session closed")
	ErrAlreadyOpen  = errors.New("session already open")
)

// Options tunes a Session.
type Options struct {
	DialTimeout         time.Duration
	WriteTimeout        time.Duration
	ReconnectInitial    time.Duration
	ReconnectMax        time.Duration
	ReconnectMultiplier float64
	EventBuffer         int
}

// DefaultOptions returns starter values for Options.
func DefaultOptions() Options {
	return Options{
		DialTimeout:         10 * time.Second,
		WriteTimeout:        5 * time.Second,
		ReconnectInitial:    500 * time.Millisecond,
		ReconnectMax:        30 * time.Second,
		ReconnectMultiplier: 2,
		EventBuffer:         64,
	}
}

// Session owns one logical connection to an endpoint. It reconnects with
// exponential backoff when the connection drops and delivers server frames
// and state transitions, in order, on Events. Handlers registered with
// Subscribe run only through Dispatch, and never after Close has returned.
type Session struct {
	id     string
	dialer Dialer
	opts   Options
	log    zerolog.Logger

	mu     sync.RWMutex
	addr   string
	state  State
	conn   Conn
	opened bool
	shut   bool
	cancel context.CancelFunc

	dispatchMu sync.Mutex
	closed     bool
	handlers   map[string]Handler

	events    chan Event
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSession builds an unopened session. A nil logger disables logging.
func NewSession(dialer Dialer, opts Options, logger *zerolog.Logger) *Session {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultOptions().EventBuffer
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		dialer:   dialer,
		opts:     opts,
		log:      logger.With().Str("session_id", id).Logger(),
		handlers: make(map[string]Handler),
		events:   make(chan Event, opts.EventBuffer),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Events returns the inbound channel. It is closed once the session stops.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Open starts connecting to addr in the background. A session can be opened
// once; reopening requires a new Session.
func (s *Session) Open(ctx context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shut {
		return ErrClosed
	}
	if s.opened {
		return ErrAlreadyOpen
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.opened = true
	s.addr = addr
	s.cancel = cancel
	s.state = StateConnecting

	s.wg.Add(1)
	go s.run(runCtx)

	s.log.Info().Str("addr", addr).Msg("session opened")
	return nil
}

// Close stops the session and releases the connection. It is idempotent.
// It must not be called from inside a Handler.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.dispatchMu.Lock()
		s.closed = true
		s.dispatchMu.Unlock()

		s.mu.Lock()
		s.shut = true
		cancel := s.cancel
		conn := s.conn
		opened := s.opened
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if conn != nil {
			_ = conn.Close()
		}
		s.wg.Wait()
		if !opened {
			close(s.events)
		}

		s.mu.Lock()
		s.state = StateDisconnected
		s.conn = nil
		s.mu.Unlock()

		s.log.Info().Msg("session closed")
	})
	return nil
}

// Send delivers one frame at most once. It returns ErrNotConnected without
// sending anything unless the session is Connected.
func (s *Session) Send(ctx context.Context, event string, payload any) error {
	s.mu.RLock()
	conn, state := s.conn, s.state
	s.mu.RUnlock()

	if state != StateConnected || conn == nil {
		return ErrNotConnected
	}

	frame, err := proto.NewFrame(event, payload)
	if err != nil {
		return err
	}

	if s.opts.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.WriteTimeout)
		defer cancel()
	}
	if err := conn.WriteFrame(ctx, frame); err != nil {
		return fmt.Errorf("write %s: %w", event, err)
	}
	s.log.Debug().Str("event", event).Msg("frame sent")
	return nil
}

// Subscribe registers h for the named event, replacing any previous handler
// so that a name never has two live handlers.
func (s *Session) Subscribe(name string, h Handler) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	if h == nil {
		delete(s.handlers, name)
		return
	}
	s.handlers[name] = h
}

// Unsubscribe removes the handler for the named event.
func (s *Session) Unsubscribe(name string) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	delete(s.handlers, name)
}

// Dispatch runs the handler subscribed to ev.Name to completion. It reports
// false when no handler ran, including after Close.
func (s *Session) Dispatch(ev Event) bool {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if s.closed {
		return false
	}
	h, ok := s.handlers[ev.Name]
	if !ok {
		return false
	}
	h(ev)
	return true
}

func (s *Session) run(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.events)
	defer func() {
		s.mu.Lock()
		s.state = StateDisconnected
		s.conn = nil
		s.mu.Unlock()
	}()

	bo := s.newBackOff()
	if !s.emitState(ctx, StateConnecting) {
		return
	}

	for {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := bo.NextBackOff()
			if wait == backoff.Stop {
				wait = s.opts.ReconnectMax
			}
			s.log.Warn().Err(err).Dur("retry_in", wait).Msg("dial failed")
			if !sleep(ctx, wait) {
				return
			}
			continue
		}
		bo.Reset()

		if !s.attach(ctx, conn) {
			_ = conn.Close()
			return
		}

		err = s.readLoop(ctx, conn)
		s.detach(conn)
		if ctx.Err() != nil {
			return
		}

		s.log.Warn().Err(err).Msg("connection lost")
		if !s.emitState(ctx, StateReconnecting) {
			return
		}
	}
}

func (s *Session) dial(ctx context.Context) (Conn, error) {
	s.mu.RLock()
	addr := s.addr
	s.mu.RUnlock()

	if s.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.DialTimeout)
		defer cancel()
	}
	return s.dialer.Dial(ctx, addr)
}

func (s *Session) attach(ctx context.Context, conn Conn) bool {
	s.mu.Lock()
	if s.shut {
		s.mu.Unlock()
		return false
	}
	s.conn = conn
	s.mu.Unlock()

	s.log.Info().Msg("connected")
	return s.emitState(ctx, StateConnected)
}

func (s *Session) detach(conn Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Session) readLoop(ctx context.Context, conn Conn) error {
	for {
		frame, err := conn.ReadFrame(ctx)
		if errors.Is(err, proto.ErrMalformedFrame) {
			s.log.Warn().Err(err).Msg("skipping frame")
			continue
		}
		if err != nil {
			return err
		}
		if frame.Event == "" || frame.Event == EventStateChange {
			s.log.Debug().Str("event", frame.Event).Msg("dropping frame without usable event name")
			continue
		}
		select {
		case s.events <- Event{Name: frame.Event, Data: frame.Data}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// emitState records st and queues its transition event. It reports false
// once the session is shutting down.
func (s *Session) emitState(ctx context.Context, st State) bool {
	s.mu.Lock()
	if s.shut {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.state = st
	s.mu.Unlock()

	if prev != st {
		s.log.Debug().Stringer("from", prev).Stringer("to", st).Msg("connection state")
	}

	select {
	case s.events <- Event{Name: EventStateChange, State: st}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Session) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	if s.opts.ReconnectInitial > 0 {
		bo.InitialInterval = s.opts.ReconnectInitial
	}
	if s.opts.ReconnectMax > 0 {
		bo.MaxInterval = s.opts.ReconnectMax
	}
	if s.opts.ReconnectMultiplier >= 1 {
		bo.Multiplier = s.opts.ReconnectMultiplier
	}
	bo.Reset()
	return bo
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
