package sink

import (
	"chat-relay/codec"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newPipeSink(t *testing.T, bufferSize int) (*ConnSink, *codec.Reader) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewConnSink(log, server, bufferSize, time.Second), codec.NewReader(client, 1024)
}

func TestConnSink_Writes_Frames_In_Order(t *testing.T) {
	req := require.New(t)
	sink, reader := newPipeSink(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sink.Run(ctx) }()

	req.NoError(sink.Send(domain.Joined{Identity: "bob"}))
	req.NoError(sink.Send(domain.Delivered{Sender: "bob", Text: "hi"}))
	req.NoError(sink.Send(domain.DeliveredChecked{Text: "hi", Checksum: 0x12345678}))

	for _, want := range []string{"NEW|bob", "MESG|bob|hi", "MESG|hi|12345678"} {
		frame, err := reader.ReadFrame()
		req.NoError(err)
		req.Equal(want, string(frame))
	}
}

func TestConnSink_Skips_Frame_With_Line_Break(t *testing.T) {
	req := require.New(t)
	sink, reader := newPipeSink(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sink.Run(ctx) }()

	// Given a frame that cannot be put on one line
	req.NoError(sink.Send(domain.Delivered{Sender: "alice", Text: "a\rb"}))
	// When a regular frame follows it
	req.NoError(sink.Send(domain.Joined{Identity: "bob"}))

	// Then only the regular frame is written and the sink stays open
	frame, err := reader.ReadFrame()
	req.NoError(err)
	req.Equal("NEW|bob", string(frame))
	req.NoError(sink.Send(domain.Departed{Identity: "bob"}))
	frame, err = reader.ReadFrame()
	req.NoError(err)
	req.Equal("GONE|bob", string(frame))
}

func TestConnSink_Close_Drains_Then_Closes_Connection(t *testing.T) {
	req := require.New(t)
	sink, reader := newPipeSink(t, 8)

	// Given frames queued before the writer runs
	req.NoError(sink.Send(domain.Error{Reason: domain.ReasonNameTaken}))
	req.NoError(sink.Close())

	done := make(chan error, 1)
	go func() { done <- sink.Run(context.Background()) }()

	// Then the queued frame still reaches the client
	frame, err := reader.ReadFrame()
	req.NoError(err)
	req.Equal("ERR|name taken", string(frame))

	// And the connection is closed afterwards
	_, err = reader.ReadFrame()
	req.ErrorIs(err, io.EOF)

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("Run did not return after Close")
	}
}

func TestConnSink_Send_After_Close(t *testing.T) {
	sink, _ := newPipeSink(t, 8)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	require.ErrorIs(t, sink.Send(domain.Joined{Identity: "bob"}), errors.ErrHandleClosed)
}

func TestConnSink_Full_Queue_Closes_Sink(t *testing.T) {
	req := require.New(t)
	// Given a writer that never runs, the queue fills up
	sink, _ := newPipeSink(t, 1)
	req.NoError(sink.Send(domain.Joined{Identity: "bob"}))

	err := sink.Send(domain.Joined{Identity: "carol"})

	req.ErrorIs(err, errors.ErrBackpressure)
	select {
	case <-sink.Done():
	default:
		req.Fail("sink should be closed after backpressure")
	}
}
