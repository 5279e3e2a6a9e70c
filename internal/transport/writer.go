// Package transport delivers relayed output to a downstream client.
//
// A Writer moves through three states: idle until Open commits the status
// and headers, open while Write appends chunks, and closed after Close. Each
// Write is flushed before it returns so chunks reach the client in order and
// without batching.
package transport

import (
	"errors"
	"net/http"
)

var (
	// ErrNotOpen is returned by Write before Open.
	ErrNotOpen = errors.New("transport: writer not open")
	// ErrAlreadyOpen is returned by a second Open.
	ErrAlreadyOpen = errors.New("transport: writer already open")
	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("transport: writer closed")
	// ErrClientGone is wrapped by write and flush failures of the underlying
	// connection, usually because the client disconnected.
	ErrClientGone = errors.New("transport: client gone")
)

// Writer is a one-shot, ordered response sink.
type Writer interface {
	// Open commits status and headers. It may be called once.
	Open(status int, header http.Header) error
	// Write appends p to the body and flushes it.
	Write(p []byte) error
	// Close ends the body. Calling Close more than once is a no-op.
	Close() error
}

type writerState int

const (
	stateIdle writerState = iota
	stateOpen
	stateClosed
)

// checkWrite maps the writer state to the error Write must return, if any.
func (s writerState) checkWrite() error {
	switch s {
	case stateIdle:
		return ErrNotOpen
	case stateClosed:
		return ErrClosed
	}
	return nil
}
