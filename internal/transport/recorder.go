package transport

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Recorder is an in-memory Writer for tests. It records every chunk and can
// simulate a client that disconnects after a number of writes.
type Recorder struct {
	mu        sync.Mutex
	state     writerState
	status    int
	header    http.Header
	chunks    []string
	opens     int
	closes    int
	failAfter int
}

var _ Writer = (*Recorder)(nil)

// NewRecorder returns a Recorder that never fails.
func NewRecorder() *Recorder {
	return &Recorder{failAfter: -1}
}

// FailAfter makes every Write after the first n successful ones fail with an
// error wrapping ErrClientGone.
func (r *Recorder) FailAfter(n int) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAfter = n
	return r
}

func (r *Recorder) Open(status int, header http.Header) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.opens++
	if r.state != stateIdle {
		return ErrAlreadyOpen
	}
	r.state = stateOpen
	r.status = status
	r.header = header.Clone()
	return nil
}

func (r *Recorder) Write(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.state.checkWrite(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	if r.failAfter >= 0 && len(r.chunks) >= r.failAfter {
		return fmt.Errorf("%w: simulated disconnect", ErrClientGone)
	}
	r.chunks = append(r.chunks, string(p))
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closes++
	r.state = stateClosed
	return nil
}

// Status returns the status passed to Open, or zero.
func (r *Recorder) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Header returns the headers passed to Open.
func (r *Recorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Clone()
}

// Chunks returns the recorded chunks in write order.
func (r *Recorder) Chunks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.chunks))
	copy(out, r.chunks)
	return out
}

// Body returns the concatenated chunks.
func (r *Recorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.chunks, "")
}

// Opens reports how many times Open was called.
func (r *Recorder) Opens() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens
}

// Closes reports how many times Close was called.
func (r *Recorder) Closes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closes
}
