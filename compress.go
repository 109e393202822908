package pubsub

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// Payload compression rides in the headers rather than the frame: a
// publisher using WithCompression stores brotli bytes as the content
// and marks the message with content-encoding: br. Fetch inflates
// before handing the message to the subscriber, so callbacks always see
// the bytes the publisher passed in.
const (
	headerContentEncoding = "content-encoding"
	encodingBrotli        = "br"
)

func compressContent(content []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(content); err != nil {
		return nil, fmt.Errorf("compress content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress content: %w", err)
	}
	return buf.Bytes(), nil
}

// inflateContent reverses WithCompression in place and strips the
// encoding header. Messages without the header pass through untouched.
func inflateContent(m *Message) error {
	if m.Headers[headerContentEncoding] != encodingBrotli {
		return nil
	}
	out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(m.Content)))
	if err != nil {
		return fmt.Errorf("inflate content: %w", err)
	}
	m.Content = out
	delete(m.Headers, headerContentEncoding)
	return nil
}
