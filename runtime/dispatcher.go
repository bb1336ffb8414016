// Package runtime runs the relay: registry, per-connection sessions,
// the dispatcher interpreting frames, and the acceptor.
package runtime

import (
	"chat-relay/checksum"
	"chat-relay/contract"
	"chat-relay/domain"
	"log/slog"
)

// Dispatcher interprets decoded frames for one peer at a time.
// It holds no per-connection state itself, so one instance serves every session.
type Dispatcher struct {
	log      *slog.Logger
	registry contract.IRegistry
	audit    contract.AuditLog
	filter   contract.Filter
}

// NewDispatcher builds a dispatcher. filter may be nil to relay text untouched.
func NewDispatcher(log *slog.Logger, registry contract.IRegistry, audit contract.AuditLog, filter contract.Filter) *Dispatcher {
	return &Dispatcher{log: log, registry: registry, audit: audit, filter: filter}
}

// Dispatch applies one frame received from p.
// It reports false once the connection has to be closed.
func (d *Dispatcher) Dispatch(p *Peer, frame domain.Frame) bool {
	switch p.state {
	case AwaitingName:
		register, ok := frame.(domain.Register)
		if !ok {
			d.log.Debug("Ignoring frame before registration", "conn_id", p.ConnID, "tag", frame.Tag())
			return true
		}
		return d.register(p, register)
	case Active:
		switch f := frame.(type) {
		case domain.Unicast:
			d.unicast(p, f)
		case domain.Resend:
			d.resend(p, f)
		case domain.Leave:
			d.depart(p, domain.ReasonLeave)
			return false
		case domain.Register:
			d.reply(p, domain.Error{Reason: domain.ReasonAlreadyRegistered})
		default:
			d.log.Debug("Ignoring unexpected frame", "identity", p.Identity, "tag", frame.Tag())
		}
		return true
	default:
		return false
	}
}

// Disconnect handles a transport failure as an implicit leave.
// Calling it on a peer that already left is a no-op.
func (d *Dispatcher) Disconnect(p *Peer) {
	d.depart(p, domain.ReasonDisconnect)
}

func (d *Dispatcher) register(p *Peer, f domain.Register) bool {
	identity, err := domain.ParseIdentity(f.Identity)
	if err != nil {
		d.log.Debug("Invalid name", "conn_id", p.ConnID, "error", err)
		d.reply(p, domain.Error{Reason: domain.ReasonInvalidName})
		return true
	}

	if err = d.registry.Register(identity, p.Handle); err != nil {
		d.log.Info("Registration rejected", "conn_id", p.ConnID, "identity", identity, "error", err)
		d.reply(p, domain.Error{Reason: domain.ReasonNameTaken})
		d.audit.Record(domain.NewAuditEvent(domain.AuditRejected, identity, domain.ReasonNameTaken, p.RemoteAddr))
		p.state = Closed
		return false
	}

	p.Identity = identity
	p.state = Active
	d.reply(p, domain.RosterSnapshot{Identities: d.registry.Snapshot()})
	d.broadcast(identity, domain.Joined{Identity: identity})

	d.log.Info("Client registered", "conn_id", p.ConnID, "identity", identity, "remote_addr", p.RemoteAddr)
	d.audit.Record(domain.NewAuditEvent(domain.AuditRegistered, identity, "", p.RemoteAddr))
	return true
}

// unicast delivers the text to the recipient, echoes it to the sender and
// follows up with the checked copy the recipient compares against.
func (d *Dispatcher) unicast(p *Peer, f domain.Unicast) {
	handle, ok := d.registry.Lookup(f.Recipient)
	if !ok {
		d.reply(p, domain.Error{Reason: domain.ReasonRecipientNotFound})
		return
	}

	text := d.censor(f.Text)
	delivered := domain.Delivered{Sender: p.Identity, Text: text}
	d.send(f.Recipient, handle, delivered)
	d.reply(p, delivered)
	d.send(f.Recipient, handle, domain.DeliveredChecked{
		Text:     text,
		Checksum: checksum.Checksum([]byte(text)),
	})
}

// resend delivers the text exactly once more, without checksum.
func (d *Dispatcher) resend(p *Peer, f domain.Resend) {
	handle, ok := d.registry.Lookup(f.Recipient)
	if !ok {
		d.reply(p, domain.Error{Reason: domain.ReasonRecipientNotFound})
		return
	}
	d.send(f.Recipient, handle, domain.Delivered{Sender: p.Identity, Text: d.censor(f.Text)})
}

func (d *Dispatcher) depart(p *Peer, reason string) {
	if p.state != Active {
		p.state = Closed
		return
	}
	p.state = Closed

	err := d.registry.Unregister(p.Identity)
	// A sender that looked the peer up just before it left now gets
	// ErrHandleClosed. Frames already queued are still written.
	_ = p.Handle.Close()
	if err != nil {
		d.log.Debug("Already unregistered", "identity", p.Identity, "error", err)
		return
	}
	d.broadcast("", domain.Departed{Identity: p.Identity})

	d.log.Info("Client departed", "conn_id", p.ConnID, "identity", p.Identity, "reason", reason)
	d.audit.Record(domain.NewAuditEvent(domain.AuditDeparted, p.Identity, reason, p.RemoteAddr))
}

// broadcast copies the member list under the registry lock and sends after it is released.
func (d *Dispatcher) broadcast(except domain.Identity, frame domain.Frame) {
	for _, member := range d.registry.Members(except) {
		d.send(member.Identity, member.Handle, frame)
	}
}

func (d *Dispatcher) reply(p *Peer, frame domain.Frame) {
	d.send(p.Identity, p.Handle, frame)
}

// send never fails the caller: a recipient that can't take the frame is
// cleaned up by its own session.
func (d *Dispatcher) send(to domain.Identity, handle contract.Handle, frame domain.Frame) {
	if err := handle.Send(frame); err != nil {
		d.log.Debug("Frame not delivered", "identity", to, "tag", frame.Tag(), "error", err)
	}
}

func (d *Dispatcher) censor(text string) string {
	if d.filter == nil {
		return text
	}
	return d.filter.Censor(text)
}
