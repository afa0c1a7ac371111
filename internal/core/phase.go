package core

// Phase is the synchronization state of the Controller.
type Phase int

const (
	// PhaseLoggedOut: no join yet.
	PhaseLoggedOut Phase = iota
	// PhaseConnecting: joined, waiting for the first bulk load.
	PhaseConnecting
	// PhaseSynced: local state reflects the server.
	PhaseSynced
	// PhaseReconnecting: the connection was lost; waiting for a reconnect
	// followed by a fresh snapshot.
	PhaseReconnecting
)

func (p Phase) String() string {
	switch p {
	case PhaseLoggedOut:
		return "logged_out"
	case PhaseConnecting:
		return "connecting"
	case PhaseSynced:
		return "synced"
	case PhaseReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
