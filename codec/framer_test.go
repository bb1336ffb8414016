package codec

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReader_SplitsCoalescedFrames(t *testing.T) {
	req := require.New(t)
	reader := NewReader(strings.NewReader("NAME|alice\nMESG|bob|hello\r\nGONE\n"), 64)

	for _, want := range []string{"NAME|alice", "MESG|bob|hello", "GONE"} {
		frame, err := reader.ReadFrame()
		req.NoError(err)
		req.Equal(want, string(frame))
	}
	_, err := reader.ReadFrame()
	req.ErrorIs(err, io.EOF)
}

func TestReader_ReassemblesSplitFrames(t *testing.T) {
	req := require.New(t)
	server, client := net.Pipe()
	defer server.Close()

	go func() {
		defer client.Close()
		for _, chunk := range []string{"MES", "G|bob|hel", "lo\nNAME", "|carol\n"} {
			if _, err := client.Write([]byte(chunk)); err != nil {
				return
			}
		}
	}()

	reader := NewReader(server, 64)
	frame, err := reader.ReadFrame()
	req.NoError(err)
	req.Equal("MESG|bob|hello", string(frame))

	frame, err = reader.ReadFrame()
	req.NoError(err)
	req.Equal("NAME|carol", string(frame))
}

func TestReader_RejectsOversizedFrame(t *testing.T) {
	reader := NewReader(strings.NewReader(strings.Repeat("x", 100)+"\n"), 16)
	_, err := reader.ReadFrame()
	require.ErrorIs(t, err, errors.ErrFrameTooLarge)
}

func TestReader_AcceptsFrameAtLimit(t *testing.T) {
	req := require.New(t)
	line := strings.Repeat("x", 16)
	reader := NewReader(strings.NewReader(line+"\r\n"), 16)
	frame, err := reader.ReadFrame()
	req.NoError(err)
	req.Equal(line, string(frame))
}

func TestReader_RejectsBareNewlineFrameOverLimit(t *testing.T) {
	req := require.New(t)
	// Without a "\r" to trim, the frame alone must fit the limit.
	reader := NewReader(strings.NewReader(strings.Repeat("x", 65)+"\n"), 64)
	_, err := reader.ReadFrame()
	req.ErrorIs(err, errors.ErrFrameTooLarge)

	reader = NewReader(strings.NewReader(strings.Repeat("x", 64)+"\n"), 64)
	frame, err := reader.ReadFrame()
	req.NoError(err)
	req.Len(frame, 64)
}

func TestReader_RejectsCRLFFrameOverLimit(t *testing.T) {
	reader := NewReader(strings.NewReader(strings.Repeat("x", 17)+"\r\n"), 16)
	_, err := reader.ReadFrame()
	require.ErrorIs(t, err, errors.ErrFrameTooLarge)
}

func TestWriter_OneFramePerLine(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	req.NoError(writer.WriteFrame(domain.Joined{Identity: "bob"}))
	req.NoError(writer.WriteFrame(domain.Delivered{Sender: "alice", Text: "hello"}))
	req.Equal("NEW|bob\nMESG|alice|hello\n", buf.String())
}

func TestWriter_RefusesEmbeddedNewline(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriter(&buf).WriteFrame(domain.Delivered{Sender: "alice", Text: "two\nlines"})
	require.ErrorIs(t, err, errors.ErrFrameDelimiter)
	require.Zero(t, buf.Len())
}
