// Package client speaks the relay's line protocol over TCP.
package client

import (
	"chat-relay/checksum"
	"chat-relay/codec"
	"chat-relay/domain"
	"context"
	"net"
	"sync"
	"time"
)

const defaultMaxFrameSize = 64 * 1024

// Client is one relay connection. Writes are safe from several goroutines,
// Receive must be called from one goroutine at a time.
type Client struct {
	conn   net.Conn
	reader *codec.Reader
	mu     sync.Mutex
	writer *codec.Writer
}

func Dial(ctx context.Context, address string) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	return &Client{
		conn:   conn,
		reader: codec.NewReader(conn, defaultMaxFrameSize),
		writer: codec.NewWriter(conn),
	}
}

func (c *Client) Register(identity domain.Identity) error {
	return c.write(domain.Register{Identity: string(identity)})
}

func (c *Client) Send(recipient domain.Identity, text string) error {
	return c.write(domain.Unicast{Recipient: recipient, Text: text})
}

// Resend asks the relay to deliver text to recipient once more, unchecked.
// A recipient noticing a corrupted message resends to the original sender.
func (c *Client) Resend(recipient domain.Identity, text string) error {
	return c.write(domain.Resend{Recipient: recipient, Text: text})
}

func (c *Client) Leave() error {
	return c.write(domain.Leave{})
}

// Receive blocks for the next frame from the relay.
// It returns io.EOF once the relay closed the connection.
func (c *Client) Receive() (domain.Frame, error) {
	for {
		raw, err := c.reader.ReadFrame()
		if err != nil {
			return nil, err
		}
		frame, err := codec.DecodeOutbound(raw)
		if err != nil {
			continue
		}
		return frame, nil
	}
}

// SetDeadline bounds both reads and writes, the zero time removes it.
func (c *Client) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) write(frame domain.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writer.WriteFrame(frame)
}

// Verify reports whether a delivered message matches its checked copy.
func Verify(delivered domain.Delivered, checked domain.DeliveredChecked) bool {
	return delivered.Text == checked.Text && checksum.Verify([]byte(checked.Text), checked.Checksum)
}
