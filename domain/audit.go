// Audit trail of session lifecycle events.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditKind string

const (
	AuditRegistered AuditKind = "REGISTERED"
	AuditDeparted   AuditKind = "DEPARTED"
	AuditRejected   AuditKind = "REJECTED"
)

// Departure reasons.
const (
	ReasonLeave      = "leave"
	ReasonDisconnect = "disconnect"
)

// AuditEvent is an immutable record of a registration or departure.
type AuditEvent struct {
	ID         uuid.UUID
	Kind       AuditKind
	Identity   Identity
	Reason     string
	RemoteAddr string
	At         time.Time
}

func NewAuditEvent(kind AuditKind, identity Identity, reason, remoteAddr string) AuditEvent {
	return AuditEvent{
		ID:         uuid.New(),
		Kind:       kind,
		Identity:   identity,
		Reason:     reason,
		RemoteAddr: remoteAddr,
		At:         time.Now().UTC(),
	}
}
