package sink

import (
	"chat-relay/codec"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	goerrors "errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

var _ contract.Handle = (*ConnSink)(nil)

// ConnSink is the outbound side of one client connection.
// Send is called by any session goroutine through the registry; Run is the
// only writer on the socket, so frames to one client keep their order.
type ConnSink struct {
	log          *slog.Logger
	conn         net.Conn
	writer       *codec.Writer
	frames       chan domain.Frame
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
}

func NewConnSink(log *slog.Logger, conn net.Conn, bufferSize int, writeTimeout time.Duration) *ConnSink {
	return &ConnSink{
		log:          log,
		conn:         conn,
		writer:       codec.NewWriter(conn),
		frames:       make(chan domain.Frame, bufferSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// Send enqueues a frame without blocking.
// A full queue means the client stopped reading: the sink gives up on it
// and closes, which makes its session depart.
func (s *ConnSink) Send(frame domain.Frame) error {
	select {
	case <-s.done:
		return errors.ErrHandleClosed
	default:
	}

	select {
	case s.frames <- frame:
		return nil
	default:
		s.log.Warn("Outbound queue full, dropping slow client",
			"remote_addr", s.conn.RemoteAddr().String(),
			"capacity", cap(s.frames))
		_ = s.Close()
		return errors.ErrBackpressure
	}
}

// Close stops accepting frames. Frames already queued are still written
// by Run before the socket is closed. Safe to call multiple times.
func (s *ConnSink) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Done is closed once the sink stopped accepting frames.
func (s *ConnSink) Done() <-chan struct{} {
	return s.done
}

// Run writes queued frames until the sink is closed, a write fails or ctx ends.
// The socket is closed on return.
func (s *ConnSink) Run(ctx context.Context) error {
	defer s.conn.Close()
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return s.drain()
		case frame := <-s.frames:
			if err := s.write(frame); err != nil {
				return err
			}
		}
	}
}

func (s *ConnSink) drain() error {
	for {
		select {
		case frame := <-s.frames:
			if err := s.write(frame); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *ConnSink) write(frame domain.Frame) error {
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	err := s.writer.WriteFrame(frame)
	switch {
	case err == nil:
		return nil
	case goerrors.Is(err, errors.ErrFrameDelimiter), goerrors.Is(err, errors.ErrUnknownFrame):
		// Nothing reached the socket, the stream is still aligned.
		s.log.Warn("Dropping unwritable frame", "remote_addr", s.conn.RemoteAddr().String(), "error", err)
		return nil
	default:
		s.log.Debug("Write failed", "remote_addr", s.conn.RemoteAddr().String(), "error", err)
		return err
	}
}
