package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	return h
}

func TestChunkedWriterLifecycle(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewChunkedWriter(rec)

	assert.ErrorIs(t, w.Write([]byte("early")), ErrNotOpen)

	require.NoError(t, w.Open(http.StatusOK, streamHeader()))
	assert.ErrorIs(t, w.Open(http.StatusOK, nil), ErrAlreadyOpen)
	assert.True(t, rec.Flushed)

	for _, chunk := range []string{"Hel", "lo", " World"} {
		require.NoError(t, w.Write([]byte(chunk)))
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Write([]byte("late")), ErrClosed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello World", rec.Body.String())
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Content-Length"))
}

type brokenResponseWriter struct {
	header http.Header
}

func (b *brokenResponseWriter) Header() http.Header { return b.header }

func (b *brokenResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("write: broken pipe")
}

func (b *brokenResponseWriter) WriteHeader(int) {}

func (b *brokenResponseWriter) Flush() {}

func TestChunkedWriterReportsClientGone(t *testing.T) {
	w := NewChunkedWriter(&brokenResponseWriter{header: http.Header{}})

	require.NoError(t, w.Open(http.StatusOK, streamHeader()))
	err := w.Write([]byte("data"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClientGone)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestNDJSONWriterFramesChunks(t *testing.T) {
	rec := NewRecorder()
	w := NewNDJSONWriter(rec)

	require.NoError(t, w.Open(http.StatusOK, streamHeader()))
	require.NoError(t, w.Write([]byte(`say "hi"`)))
	require.NoError(t, w.Write([]byte("\n")))
	require.NoError(t, w.Close())

	assert.Equal(t, ContentTypeNDJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{`{"delta":"say \"hi\""}` + "\n", `{"delta":"\n"}` + "\n"}, rec.Chunks())
	assert.Equal(t, 1, rec.Closes())
}

func TestNDJSONWriterPropagatesState(t *testing.T) {
	w := NewNDJSONWriter(NewRecorder())
	assert.ErrorIs(t, w.Write([]byte("x")), ErrNotOpen)

	require.NoError(t, w.Open(http.StatusOK, nil))
	assert.ErrorIs(t, w.Open(http.StatusOK, nil), ErrAlreadyOpen)
}

func TestRecorderFailureInjection(t *testing.T) {
	rec := NewRecorder().FailAfter(2)

	require.NoError(t, rec.Open(http.StatusOK, streamHeader()))
	require.NoError(t, rec.Write([]byte("a")))
	require.NoError(t, rec.Write([]byte("")))
	require.NoError(t, rec.Write([]byte("b")))

	err := rec.Write([]byte("c"))
	assert.ErrorIs(t, err, ErrClientGone)
	assert.Equal(t, "ab", rec.Body())
	assert.Equal(t, http.StatusOK, rec.Status())
	assert.Equal(t, 1, rec.Opens())
}
