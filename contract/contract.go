//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context) error
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding a naming method on Worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Handle is the send side of one client connection.
// Send must never block: it enqueues or fails.
type Handle interface {
	Send(frame domain.Frame) error
	Close() error
}

// Member pairs a registered identity with its handle.
type Member struct {
	Identity domain.Identity
	Handle   Handle
}

type IRegistry interface {
	Register(identity domain.Identity, handle Handle) error
	Unregister(identity domain.Identity) error
	Lookup(identity domain.Identity) (Handle, bool)
	Snapshot() []domain.Identity
	// Members returns every member except the given identity.
	// An empty identity excludes nobody.
	Members(except domain.Identity) []Member
	Len() int
}

// AuditLog is write only and fire and forget.
// Implementations must never block the caller.
type AuditLog interface {
	Record(evt domain.AuditEvent)
}

type AuditSink interface {
	Consume(ctx context.Context, evt domain.AuditEvent) error
}

// Filter rewrites message text before it is relayed.
type Filter interface {
	Censor(text string) string
}
