package session

import (
	"fmt"

	"github.com/Mohsinsiddi/milknet/internal/milknet"
)

// Role is the locally cached marketplace role.
type Role string

const (
	RoleNone   Role = ""
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

// ParseRole accepts "farmer" or "buyer".
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleFarmer, RoleBuyer:
		return r, nil
	default:
		return RoleNone, fmt.Errorf("%w: %q (want farmer or buyer)", ErrInvalidRole, s)
	}
}

// State is the coarse connection state derived from a snapshot.
type State int

const (
	Disconnected State = iota
	Connecting
	ConnectedValidNetwork
	ConnectedInvalidNetwork
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case ConnectedValidNetwork:
		return "connected"
	case ConnectedInvalidNetwork:
		return "wrong network"
	default:
		return "disconnected"
	}
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	// Version increases with every published change.
	Version      uint64
	Account      string
	ChainID      uint64
	NetworkName  string
	Contract     milknet.Contract
	NetworkError string
	Paused       bool
	Role         Role
	Connecting   bool
}

// Connected reports whether an account is attached.
func (s Snapshot) Connected() bool { return s.Account != "" }

// State derives the connection state.
func (s Snapshot) State() State {
	switch {
	case s.Connecting:
		return Connecting
	case s.Account == "":
		return Disconnected
	case s.Contract != nil:
		return ConnectedValidNetwork
	default:
		return ConnectedInvalidNetwork
	}
}
