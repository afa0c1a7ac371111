package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

// Transport is the part of ws.Session the Controller drives.
type Transport interface {
	Events() <-chan ws.Event
	Send(ctx context.Context, event string, payload any) error
	Subscribe(name string, h ws.Handler)
	Unsubscribe(name string)
	Dispatch(ev ws.Event) bool
}

// Status is the consumer-facing view of identity and connectivity.
type Status struct {
	Username   string
	Joined     bool
	Phase      Phase
	Connection ws.State
}

// Controller applies server events to the Roster, MessageLog and Identity
// and turns user actions into outbound frames. Every mutation runs under one
// lock, so handlers and actions never interleave.
type Controller struct {
	transport Transport
	log       zerolog.Logger

	identity Identity
	roster   Roster
	messages MessageLog

	mu         sync.Mutex
	phase      Phase
	connection ws.State
	// loaded is set once a bulk load arrived on the current connection.
	loaded bool

	updates chan struct{}
}

// NewController builds a controller over transport. A nil logger disables logging.
func NewController(transport Transport, logger *zerolog.Logger) *Controller {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Controller{
		transport: transport,
		log:       logger.With().Str("component", "sync").Logger(),
		updates:   make(chan struct{}, 1),
	}
}

// Run subscribes the controller's handlers and dispatches transport events
// in delivery order until ctx ends or the transport stops.
func (c *Controller) Run(ctx context.Context) error {
	handlers := c.handlers()
	for name, h := range handlers {
		c.transport.Unsubscribe(name)
		c.transport.Subscribe(name, h)
	}
	defer func() {
		for name := range handlers {
			c.transport.Unsubscribe(name)
		}
		c.mu.Lock()
		c.connection = ws.StateDisconnected
		c.mu.Unlock()
		c.notify()
	}()

	events := c.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !c.transport.Dispatch(ev) {
				c.log.Debug().Str("event", ev.Name).Msg("event not dispatched")
			}
		}
	}
}

// Updates signals after state changes. Signals coalesce; readers should
// re-read snapshots on each receive.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

// Status returns the current identity, phase and connection state.
func (c *Controller) Status() Status {
	id := c.identity.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Username:   id.Username,
		Joined:     id.Joined,
		Phase:      c.phase,
		Connection: c.connection,
	}
}

// Roster returns the current participant snapshot.
func (c *Controller) Roster() []string {
	return c.roster.Current()
}

// Messages returns the message log in arrival order.
func (c *Controller) Messages() []Message {
	return c.messages.Snapshot()
}

// AttemptJoin joins as name. Blank names and repeated joins are refused
// silently. The join frame goes out now when connected, otherwise on the
// next connect. It reports whether the identity joined.
func (c *Controller) AttemptJoin(ctx context.Context, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.identity.Join(name) {
		c.log.Debug().Msg("join refused")
		return false
	}
	username := c.identity.Snapshot().Username

	if c.phase == PhaseLoggedOut && c.connection != ws.StateDisconnected {
		c.phase = PhaseConnecting
		if c.loaded {
			c.markSynced()
		}
	}
	if c.connection == ws.StateConnected {
		c.send(ctx, proto.EventJoin, username)
	}
	c.log.Info().Str("username", username).Msg("joined")
	c.notify()
	return true
}

// SubmitMessage sends text as the local user. The log is not updated here;
// the message shows up once the server echoes it back. It reports whether a
// frame was handed to the transport.
func (c *Controller) SubmitMessage(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.identity.Snapshot()
	if !id.Joined {
		c.log.Debug().Msg("message refused before join")
		return false
	}
	return c.send(ctx, proto.EventSendMessage, proto.SendMessageData{
		Username: id.Username,
		Text:     text,
	})
}

func (c *Controller) handlers() map[string]ws.Handler {
	return map[string]ws.Handler{
		ws.EventStateChange:       c.onState,
		proto.EventLoadMessages:   c.onLoadMessages,
		proto.EventReceiveMessage: c.onReceiveMessage,
		proto.EventUserJoined:     c.onRoster,
		proto.EventUserLeft:       c.onRoster,
	}
}

func (c *Controller) onState(ev ws.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.connection
	c.connection = ev.State

	c.loaded = false

	switch ev.State {
	case ws.StateConnected:
		id := c.identity.Snapshot()
		if id.Joined {
			if c.phase == PhaseLoggedOut {
				c.phase = PhaseConnecting
			}
			// The server forgets us with the old connection.
			c.send(context.Background(), proto.EventJoin, id.Username)
		}
	case ws.StateReconnecting, ws.StateConnecting, ws.StateDisconnected:
		if prev == ws.StateConnected {
			c.roster.Clear()
		}
		if c.phase == PhaseSynced {
			c.phase = PhaseReconnecting
		}
	}

	c.log.Debug().Stringer("connection", ev.State).Stringer("phase", c.phase).Msg("connection state applied")
	c.notify()
}

func (c *Controller) onLoadMessages(ev ws.Event) {
	var payload []proto.MessageData
	if err := (proto.Frame{Event: ev.Name, Data: ev.Data}).Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("skipping frame")
		return
	}
	messages := make([]Message, 0, len(payload))
	for _, m := range payload {
		messages = append(messages, messageFromProto(m))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages.Seed(messages)
	c.loaded = true
	c.markSynced()
	c.log.Debug().Int("count", len(messages)).Msg("message log seeded")
	c.notify()
}

func (c *Controller) onReceiveMessage(ev ws.Event) {
	var payload proto.MessageData
	if err := (proto.Frame{Event: ev.Name, Data: ev.Data}).Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("skipping frame")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages.Append(messageFromProto(payload))
	c.notify()
}

func (c *Controller) onRoster(ev ws.Event) {
	var payload proto.UsersData
	if err := (proto.Frame{Event: ev.Name, Data: ev.Data}).Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("skipping frame")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.roster.Replace(payload.Users)
	if c.phase == PhaseReconnecting {
		c.markSynced()
	}
	c.log.Debug().Str("event", ev.Name).Int("online", len(payload.Users)).Msg("roster replaced")
	c.notify()
}

// markSynced moves to Synced after a snapshot. Callers hold c.mu.
func (c *Controller) markSynced() {
	switch c.phase {
	case PhaseConnecting:
		c.phase = PhaseSynced
	case PhaseReconnecting:
		if c.connection == ws.StateConnected {
			c.phase = PhaseSynced
		}
	}
}

// send is fire-and-forget. Callers hold c.mu.
func (c *Controller) send(ctx context.Context, event string, payload any) bool {
	if err := c.transport.Send(ctx, event, payload); err != nil {
		if errors.Is(err, ws.ErrNotConnected) {
			c.log.Debug().Str("event", event).Msg("dropped outbound frame while not connected")
		} else {
			c.log.Warn().Err(err).Str("event", event).Msg("send failed")
		}
		return false
	}
	return true
}

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
