package provider

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Clementwa0/Job-tracker-sub001/internal/models"
)

// StreamBuffer is the channel capacity used by providers for fragment delivery.
const StreamBuffer = 16

// Send delivers chunk on ch unless ctx is done first. It reports whether the
// chunk was delivered; false means the consumer is gone and the producer must stop.
func Send(ctx context.Context, ch chan<- models.StreamChunk, chunk models.StreamChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// maxSSELine bounds a single server-sent event line.
const maxSSELine = 1 << 20

// ScanSSE reads a server-sent event stream and calls fn with the payload of
// every data line. Comments, event names and blank lines are skipped. Scanning
// stops when fn returns false or an error, or at end of input.
func ScanSSE(r io.Reader, fn func(data string) (bool, error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		more, err := fn(data)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return nil
}
