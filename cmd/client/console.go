package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

type chat interface {
	Status() core.Status
	Roster() []string
	Messages() []core.Message
	Updates() <-chan struct{}
	AttemptJoin(ctx context.Context, name string) bool
	SubmitMessage(ctx context.Context, text string) bool
}

// console is a line-oriented view: stdin lines become actions and every
// update re-renders what changed.
type console struct {
	chat chat
	in   io.Reader
	out  io.Writer

	rendered bool
	status   core.Status
	shown    []core.Message
	roster   []string
}

func newConsole(c chat, in io.Reader, out io.Writer) *console {
	return &console{chat: c, in: in, out: out}
}

// Run blocks until ctx ends. When stdin is exhausted it calls stop and
// returns, or keeps rendering updates if stop is nil.
func (c *console) Run(ctx context.Context, stop func()) {
	lines := make(chan string)
	input := lines
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.render()
	if !c.chat.Status().Joined {
		fmt.Fprintln(c.out, "Enter your username:")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.chat.Updates():
			c.render()
		case line, ok := <-input:
			if !ok {
				if stop != nil {
					stop()
					return
				}
				input = nil
				continue
			}
			c.handleLine(ctx, line)
		}
	}
}

func (c *console) handleLine(ctx context.Context, line string) {
	if !c.chat.Status().Joined {
		if !c.chat.AttemptJoin(ctx, line) {
			fmt.Fprintln(c.out, "Enter your username:")
		}
		return
	}
	c.chat.SubmitMessage(ctx, line)
}

func (c *console) render() {
	status := c.chat.Status()
	if !c.rendered || status.Phase != c.status.Phase || status.Connection != c.status.Connection {
		fmt.Fprintf(c.out, "* %s (%s)\n", status.Phase, status.Connection)
	}

	messages := c.chat.Messages()
	if samePrefix(messages, c.shown) {
		for _, m := range messages[len(c.shown):] {
			fmt.Fprintln(c.out, formatMessage(m, status))
		}
	} else {
		fmt.Fprintln(c.out, "--- history ---")
		for _, m := range messages {
			fmt.Fprintln(c.out, formatMessage(m, status))
		}
	}

	roster := c.chat.Roster()
	if (c.rendered && !equalStrings(roster, c.roster)) || (!c.rendered && len(roster) > 0) {
		fmt.Fprintf(c.out, "* online: %s\n", strings.Join(roster, ", "))
	}

	c.rendered = true
	c.status = status
	c.shown = messages
	c.roster = roster
}

func formatMessage(m core.Message, self core.Status) string {
	name := m.Username
	if self.Joined && m.Username == self.Username {
		name += " (you)"
	}
	if m.Timestamp.IsZero() {
		return fmt.Sprintf("%s: %s", name, m.Text)
	}
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.Local().Format("15:04:05"), name, m.Text)
}

// samePrefix reports whether shown is still the head of messages, i.e. the
// log only grew.
func samePrefix(messages, shown []core.Message) bool {
	if len(shown) > len(messages) {
		return false
	}
	for i := range shown {
		if messages[i] != shown[i] {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
