package codec

import (
	"bufio"
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"io"
)

const delimiter = '\n'

// Reader splits a byte stream into newline delimited frames.
// A trailing "\r" is dropped so that telnet style clients work as well.
type Reader struct {
	scanner      *bufio.Scanner
	maxFrameSize int
}

// NewReader returns a Reader refusing frames longer than maxFrameSize bytes.
func NewReader(r io.Reader, maxFrameSize int) *Reader {
	scanner := bufio.NewScanner(r)
	// Room for the frame and its "\r\n", the limit itself is checked per frame.
	scanner.Buffer(make([]byte, 0, min(maxFrameSize+2, 4096)), maxFrameSize+2)
	return &Reader{scanner: scanner, maxFrameSize: maxFrameSize}
}

// ReadFrame blocks until a whole frame is available.
// It returns io.EOF once the peer closed the stream.
func (r *Reader) ReadFrame() ([]byte, error) {
	if r.scanner.Scan() {
		frame := r.scanner.Bytes()
		if len(frame) > r.maxFrameSize {
			return nil, fmt.Errorf("%w: %d bytes", errors.ErrFrameTooLarge, len(frame))
		}
		return bytes.Clone(frame), nil
	}
	err := r.scanner.Err()
	switch {
	case err == nil:
		return nil, io.EOF
	case err == bufio.ErrTooLong:
		return nil, fmt.Errorf("%w: %v", errors.ErrFrameTooLarge, err)
	default:
		return nil, err
	}
}

// Writer emits one frame per line. It is not safe for concurrent use.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteFrame encodes and flushes a single frame.
func (w *Writer) WriteFrame(frame domain.Frame) error {
	b, err := Encode(frame)
	if err != nil {
		return err
	}
	if bytes.ContainsAny(b, "\r\n") {
		return fmt.Errorf("%w: %s frame", errors.ErrFrameDelimiter, frame.Tag())
	}
	if _, err = w.w.Write(b); err != nil {
		return err
	}
	if err = w.w.WriteByte(delimiter); err != nil {
		return err
	}
	return w.w.Flush()
}
