package core

import "sync"

// Roster is the set of online participants. The server is its only source
// of truth: every snapshot replaces the previous one wholesale.
type Roster struct {
	mu      sync.RWMutex
	members []string
}

// Replace swaps in a new membership snapshot. Duplicate names collapse to
// their first occurrence; server order is otherwise kept.
func (r *Roster) Replace(names []string) {
	seen := make(map[string]struct{}, len(names))
	members := make([]string, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		members = append(members, name)
	}

	r.mu.Lock()
	r.members = members
	r.mu.Unlock()
}

// Clear drops the snapshot, e.g. once it can no longer be trusted.
func (r *Roster) Clear() {
	r.mu.Lock()
	r.members = nil
	r.mu.Unlock()
}

// Current returns a copy of the present snapshot.
func (r *Roster) Current() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.members))
	copy(out, r.members)
	return out
}
