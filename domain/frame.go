// Package domain contains core concepts of the relay.
// This file defines the frames exchanged on the wire.
package domain

// Tag is the command field that opens every frame.
type Tag string

const (
	TagName    Tag = "NAME"
	TagMessage Tag = "MESG"
	TagResend  Tag = "MERR"
	TagGone    Tag = "GONE"
	TagList    Tag = "LIST"
	TagNew     Tag = "NEW"
	TagError   Tag = "ERR"
)

// Error reasons sent back to clients.
const (
	ReasonNameTaken         = "name taken"
	ReasonInvalidName       = "invalid name"
	ReasonRecipientNotFound = "recipient not found"
	ReasonAlreadyRegistered = "already registered"
)

// Frame is one decoded unit of the wire protocol.
type Frame interface {
	Tag() Tag
}

// Register asks to bind the connection to a name. The name is kept raw
// so that validation happens where the rejection is reported.
type Register struct {
	Identity string
}

// Unicast sends Text to exactly one recipient.
type Unicast struct {
	Recipient Identity
	Text      string
}

// Resend asks the server to deliver Text to Recipient once more, without checksum.
type Resend struct {
	Recipient Identity
	Text      string
}

// Leave closes the session on the client's request.
type Leave struct{}

// RosterSnapshot lists every identity registered when the caller joined.
type RosterSnapshot struct {
	Identities []Identity
}

// Joined announces a new client.
type Joined struct {
	Identity Identity
}

// Departed announces a client that left or dropped.
type Departed struct {
	Identity Identity
}

// Delivered carries a plain message.
type Delivered struct {
	Sender Identity
	Text   string
}

// DeliveredChecked carries the same text as the preceding Delivered with its checksum.
type DeliveredChecked struct {
	Text     string
	Checksum uint32
}

// Error reports a rejected request.
type Error struct {
	Reason string
}

func (Register) Tag() Tag         { return TagName }
func (Unicast) Tag() Tag          { return TagMessage }
func (Resend) Tag() Tag           { return TagResend }
func (Leave) Tag() Tag            { return TagGone }
func (RosterSnapshot) Tag() Tag   { return TagList }
func (Joined) Tag() Tag           { return TagNew }
func (Departed) Tag() Tag         { return TagGone }
func (Delivered) Tag() Tag        { return TagMessage }
func (DeliveredChecked) Tag() Tag { return TagMessage }
func (Error) Tag() Tag            { return TagError }
