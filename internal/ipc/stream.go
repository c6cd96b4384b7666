package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// maxLineSize bounds a single message; icons travel inline as data URIs.
const maxLineSize = 8 * 1024 * 1024

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("ipc: sender closed")

// Sender writes messages to w, one JSON document per line.
// It is safe for concurrent use.
type Sender struct {
	mu     sync.Mutex
	w      io.Writer
	enc    *json.Encoder
	closed bool
}

// NewSender creates a sender writing to w.
func NewSender(w io.Writer) *Sender {
	return &Sender{w: w, enc: json.NewEncoder(w)}
}

// Send serializes msg and writes it.
func (s *Sender) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.enc.Encode(msg); err != nil {
		return fmt.Errorf("ipc: send %s: %w", msg.Type, err)
	}
	return nil
}

// Close stops the sender and closes the underlying writer if it is an
// io.Closer.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Receiver reads messages written by a Sender.
type Receiver struct {
	src     io.Reader
	scanner *bufio.Scanner
}

// NewReceiver creates a receiver reading from r.
func NewReceiver(r io.Reader) *Receiver {
	return newReceiver(r, maxLineSize)
}

func newReceiver(r io.Reader, maxLine int) *Receiver {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(64*1024, maxLine)), maxLine)
	return &Receiver{src: r, scanner: sc}
}

// pipeCloser is implemented by *io.PipeReader.
type pipeCloser interface {
	CloseWithError(err error) error
}

// abort closes the source so that a writer blocked on the other end of a
// pipe fails with err instead of waiting for a reader that is gone.
func (r *Receiver) abort(err error) {
	switch c := r.src.(type) {
	case pipeCloser:
		_ = c.CloseWithError(err)
	case io.Closer:
		_ = c.Close()
	}
}

// Receive returns the next message. It returns io.EOF when the stream ends.
// Blank lines are skipped.
func (r *Receiver) Receive() (Message, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			return Message{}, fmt.Errorf("ipc: decode message: %w", err)
		}
		return msg, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Message{}, err
	}
	return Message{}, io.EOF
}

// Pump delivers received messages to handle until the stream ends or ctx
// is done. Malformed lines are passed to onError and skipped. When Pump
// stops early, because ctx is done or the stream cannot be read (an
// oversized line, for example), the source is closed so that further
// writes to it fail.
func (r *Receiver) Pump(ctx context.Context, handle func(Message), onError func(error)) error {
	for {
		if err := ctx.Err(); err != nil {
			r.abort(err)
			return err
		}
		msg, err := r.Receive()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				if onError != nil {
					onError(err)
				}
				continue
			}
			r.abort(err)
			return err
		}
		handle(msg)
	}
}
