package core

import "sync"

// MessageLog holds messages in the order the client received them. It is
// never sorted and never deduplicated.
type MessageLog struct {
	mu       sync.RWMutex
	messages []Message
}

// Seed replaces the whole log with a bulk load.
func (l *MessageLog) Seed(messages []Message) {
	seeded := make([]Message, len(messages))
	copy(seeded, messages)

	l.mu.Lock()
	l.messages = seeded
	l.mu.Unlock()
}

// Append adds m at the tail.
func (l *MessageLog) Append(m Message) {
	l.mu.Lock()
	l.messages = append(l.messages, m)
	l.mu.Unlock()
}

// Snapshot returns a copy of the log in arrival order.
func (l *MessageLog) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}
