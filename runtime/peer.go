package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"

	"github.com/google/uuid"
)

// State of a connection as seen by the dispatcher.
type State int

const (
	AwaitingName State = iota
	Active
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingName:
		return "awaiting_name"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Peer is one connection in the dispatcher's state machine.
// It belongs to the goroutine reading that connection and is never shared.
type Peer struct {
	ConnID     uuid.UUID
	RemoteAddr string
	Identity   domain.Identity
	Handle     contract.Handle
	state      State
}

func NewPeer(handle contract.Handle, remoteAddr string) *Peer {
	return &Peer{
		ConnID:     uuid.New(),
		RemoteAddr: remoteAddr,
		Handle:     handle,
		state:      AwaitingName,
	}
}

func (p *Peer) State() State {
	return p.state
}
