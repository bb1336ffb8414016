package runtime

import (
	"chat-relay/codec"
	"chat-relay/sink"
	"context"
	"io"
	"log/slog"
	"net"
	"time"
)

// SessionConfig bounds the resources of one connection.
type SessionConfig struct {
	BufferSize   int
	MaxFrameSize int
	WriteTimeout time.Duration
}

// Session owns one client connection: it reads frames, hands them to the
// dispatcher and runs the writer goroutine of the connection's sink.
type Session struct {
	log        *slog.Logger
	conn       net.Conn
	dispatcher *Dispatcher
	sink       *sink.ConnSink
	reader     *codec.Reader
	peer       *Peer
}

func NewSession(log *slog.Logger, conn net.Conn, dispatcher *Dispatcher, config SessionConfig) *Session {
	connSink := sink.NewConnSink(log, conn, config.BufferSize, config.WriteTimeout)
	return &Session{
		log:        log,
		conn:       conn,
		dispatcher: dispatcher,
		sink:       connSink,
		reader:     codec.NewReader(conn, config.MaxFrameSize),
		peer:       NewPeer(connSink, conn.RemoteAddr().String()),
	}
}

func (s *Session) Peer() *Peer {
	return s.peer
}

// Run serves the connection until the client leaves, the transport fails
// or ctx is canceled. It returns once the socket is closed.
func (s *Session) Run(ctx context.Context) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if err := s.sink.Run(ctx); err != nil && ctx.Err() == nil {
			s.log.Debug("Writer stopped", "conn_id", s.peer.ConnID, "error", err)
		}
	}()

	// Unblocks the read loop on shutdown.
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	defer func() {
		_ = s.sink.Close()
		<-writerDone
	}()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Session panic", "conn_id", s.peer.ConnID, "panic", r)
			s.dispatcher.Disconnect(s.peer)
		}
	}()

	s.readLoop()
}

func (s *Session) readLoop() {
	for {
		raw, err := s.reader.ReadFrame()
		if err != nil {
			if err != io.EOF {
				s.log.Debug("Read failed", "conn_id", s.peer.ConnID, "error", err)
			}
			s.dispatcher.Disconnect(s.peer)
			return
		}

		frame, err := codec.Decode(raw)
		if err != nil {
			s.log.Debug("Ignoring malformed frame", "conn_id", s.peer.ConnID, "error", err)
			continue
		}
		if !s.dispatcher.Dispatch(s.peer, frame) {
			return
		}
	}
}
