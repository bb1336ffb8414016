package client

import (
	"chat-relay/domain"
	"slices"
)

const maxTracked = 32

// Tracker pairs delivered messages with the checked copies that follow them.
// Receive frames from one goroutine only.
type Tracker struct {
	self    domain.Identity
	pending []domain.Delivered
	// own holds messages from self: echoes of outgoing messages and notes to
	// self. They are matched against checked copies but never reported.
	own []domain.Delivered
}

func NewTracker(self domain.Identity) *Tracker {
	return &Tracker{self: self}
}

// Delivered records a message waiting for its checked copy.
func (t *Tracker) Delivered(d domain.Delivered) {
	if d.Sender == t.self {
		t.own = push(t.own, d)
		return
	}
	t.pending = push(t.pending, d)
}

// Checked consumes the delivery confirmed by the checked copy.
// When none matches it returns the delivery to report as corrupted: the one
// with the same text if any, else the oldest one still waiting.
func (t *Tracker) Checked(c domain.DeliveredChecked) (domain.Delivered, bool) {
	if i := slices.IndexFunc(t.pending, func(d domain.Delivered) bool { return Verify(d, c) }); i >= 0 {
		t.pending = slices.Delete(t.pending, i, i+1)
		return domain.Delivered{}, false
	}
	if i := slices.IndexFunc(t.own, func(d domain.Delivered) bool { return Verify(d, c) }); i >= 0 {
		t.own = slices.Delete(t.own, i, i+1)
		return domain.Delivered{}, false
	}
	if len(t.pending) == 0 {
		return domain.Delivered{}, false
	}

	i := max(slices.IndexFunc(t.pending, func(d domain.Delivered) bool { return d.Text == c.Text }), 0)
	corrupted := t.pending[i]
	t.pending = slices.Delete(t.pending, i, i+1)
	return corrupted, true
}

func push(list []domain.Delivered, d domain.Delivered) []domain.Delivered {
	if len(list) == maxTracked {
		list = slices.Delete(list, 0, 1)
	}
	return append(list, d)
}
