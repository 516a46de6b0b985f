package types

import "github.com/tokenquest/sdk-go/core/util"

// SessionState is the wallet session state machine position.
type SessionState string

const (
	// SessionDisconnected is the initial state: no account, not connected.
	SessionDisconnected SessionState = "disconnected"
	// SessionConnecting is entered only while Connect is in flight and
	// always resolves to Disconnected or one of the connected states.
	SessionConnecting SessionState = "connecting"
	// SessionConnectedCompliant: connected and on the required chain.
	SessionConnectedCompliant SessionState = "connected_compliant"
	// SessionConnectedNonCompliant: connected but on the wrong chain.
	SessionConnectedNonCompliant SessionState = "connected_noncompliant"
)

// SessionSnapshot is a point-in-time copy of the wallet session. Account is
// non-zero iff Connected is true. Generation increases on every transition,
// letting callers detect that a snapshot captured earlier has gone stale.
type SessionSnapshot struct {
	State            SessionState `json:"state"`
	Connected        bool         `json:"is_connected"`
	Account          util.Address `json:"account,omitempty"`
	NetworkCompliant bool         `json:"network_compliant"`
	Generation       uint64       `json:"-"`
}
