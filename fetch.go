package pubsub

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// Fetch pulls at most one message from the channel without blocking:
// one non-blocking 8-byte read from the pipe, then a load and unlink of
// the payload file the ID names. It returns (nil, nil) when the pipe is
// empty or the payload has already been reclaimed. The channel must be
// open for reading.
func Fetch(c *Channel) (*Message, error) {
	if c.reader == nil {
		return nil, ErrChannelNotOpen
	}

	var token [8]byte
	n, err := c.reader.Read(token[:])
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}
	if n < len(token) {
		// Empty pipe, or a torn token from a misbehaving writer. The
		// 8-byte writes publishers perform are atomic, so a genuine
		// short read does not happen here; treat it as no message.
		metricFetches.WithLabelValues("miss").Inc()
		return nil, nil
	}

	id := binary.BigEndian.Uint64(token[:])
	payload := filepath.Join(c.Dir, strconv.FormatUint(id, 10))
	raw, err := os.ReadFile(payload)
	if err != nil {
		if os.IsNotExist(err) {
			// Already consumed or swept; the token outlived the file.
			log.WithField("payload", payload).Debug("payload file missing, dropping token")
			metricFetches.WithLabelValues("miss").Inc()
			return nil, nil
		}
		return nil, fmt.Errorf("read payload %s: %w", payload, err)
	}

	msg, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(payload); err != nil && !os.IsNotExist(err) {
		log.WithError(err).WithField("payload", payload).Warn("removing consumed payload failed")
	}
	if err := inflateContent(msg); err != nil {
		return nil, err
	}

	metricFetches.WithLabelValues("hit").Inc()
	return msg, nil
}
