package transport

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ChunkedWriter streams a response body over HTTP. No Content-Length is set, so
// net/http frames the body with chunked transfer encoding.
type ChunkedWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu    sync.Mutex
	state writerState
}

var _ Writer = (*ChunkedWriter)(nil)

// NewChunkedWriter wraps w. Wrappers such as echo.Response must implement
// Unwrap or Flush for flushing to reach the connection.
func NewChunkedWriter(w http.ResponseWriter) *ChunkedWriter {
	return &ChunkedWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// Open writes the status line and headers and flushes them. The server write
// deadline is cleared so long streams are not cut off.
func (c *ChunkedWriter) Open(status int, header http.Header) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateIdle {
		return ErrAlreadyOpen
	}
	c.state = stateOpen

	dst := c.w.Header()
	for k, values := range header {
		dst.Del(k)
		for _, v := range values {
			dst.Add(k, v)
		}
	}
	dst.Del("Content-Length")

	if err := c.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("clear write deadline: %w", err)
	}

	c.w.WriteHeader(status)
	if err := c.rc.Flush(); err != nil {
		return fmt.Errorf("%w: flush headers: %v", ErrClientGone, err)
	}
	return nil
}

// Write sends p as one chunk and flushes it.
func (c *ChunkedWriter) Write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.state.checkWrite(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}

	if _, err := c.w.Write(p); err != nil {
		return fmt.Errorf("%w: write: %v", ErrClientGone, err)
	}
	if err := c.rc.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %v", ErrClientGone, err)
	}
	return nil
}

// Close marks the body complete. The terminating chunk is written by net/http
// when the handler returns.
func (c *ChunkedWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = stateClosed
	return nil
}
