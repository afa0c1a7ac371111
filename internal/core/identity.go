package core

import (
	"strings"
	"sync"
)

// Identity is the local user. It becomes joined once and never reverts.
type Identity struct {
	mu       sync.RWMutex
	username string
	joined   bool
}

// IdentitySnapshot is a read-only copy of Identity.
type IdentitySnapshot struct {
	Username string
	Joined   bool
}

// Join records name, as typed, as the local username. Blank names and
// repeated joins are refused without changing anything.
func (i *Identity) Join(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.joined {
		return false
	}
	i.username = name
	i.joined = true
	return true
}

// Snapshot returns the current identity.
func (i *Identity) Snapshot() IdentitySnapshot {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return IdentitySnapshot{Username: i.username, Joined: i.joined}
}
