package chat

// State is the session state.
type State int

const (
	// StateAnonymous means no identity is held.
	StateAnonymous State = iota

	// StateAuthenticating means a handshake is in flight.
	StateAuthenticating

	// StateAuthenticated means the handshake succeeded and the identity is set.
	StateAuthenticated
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
