package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry is the authoritative set of registered sessions.
// Every operation runs under one lock and no I/O ever happens while it is held:
// callers copy what they need (Snapshot, Members) and send afterwards.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.Identity]contract.Handle
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.Identity]contract.Handle)}
}

// Register binds identity to handle unless the identity is already live.
// A duplicate is rejected, never overwritten.
func (r *Registry) Register(identity domain.Identity, handle contract.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[identity]; exists {
		return fmt.Errorf("%w: %s", errors.ErrAlreadyExists, identity)
	}
	r.sessions[identity] = handle
	return nil
}

// Unregister removes identity. Removing an absent identity reports ErrNotFound,
// which lets concurrent leave paths detect they lost the race.
func (r *Registry) Unregister(identity domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[identity]; !exists {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, identity)
	}
	delete(r.sessions, identity)
	return nil
}

func (r *Registry) Lookup(identity domain.Identity) (contract.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.sessions[identity]
	return handle, ok
}

// Snapshot returns the registered identities in lexical order.
func (r *Registry) Snapshot() []domain.Identity {
	r.mu.RLock()
	identities := lo.Keys(r.sessions)
	r.mu.RUnlock()

	slices.Sort(identities)
	return identities
}

// Members copies every registered identity and its handle, except the given one.
func (r *Registry) Members(except domain.Identity) []contract.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]contract.Member, 0, len(r.sessions))
	for identity, handle := range r.sessions {
		if identity == except {
			continue
		}
		members = append(members, contract.Member{Identity: identity, Handle: handle})
	}
	return members
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
