package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ContentTypeNDJSON is the media type of newline-delimited JSON streams.
const ContentTypeNDJSON = "application/x-ndjson"

// NDJSONWriter frames every chunk as a {"delta": "..."} line before handing it
// to the wrapped Writer.
type NDJSONWriter struct {
	next Writer
}

var _ Writer = (*NDJSONWriter)(nil)

// NewNDJSONWriter wraps next.
func NewNDJSONWriter(next Writer) *NDJSONWriter {
	return &NDJSONWriter{next: next}
}

type ndjsonLine struct {
	Delta string `json:"delta"`
}

// Open replaces the content type and opens the wrapped writer.
func (n *NDJSONWriter) Open(status int, header http.Header) error {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", ContentTypeNDJSON)
	return n.next.Open(status, h)
}

func (n *NDJSONWriter) Write(p []byte) error {
	if len(p) == 0 {
		return n.next.Write(nil)
	}
	line, err := json.Marshal(ndjsonLine{Delta: string(p)})
	if err != nil {
		return fmt.Errorf("encode ndjson line: %w", err)
	}
	return n.next.Write(append(line, '\n'))
}

func (n *NDJSONWriter) Close() error {
	return n.next.Close()
}
