package pubsub

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/formix/pubsub/internal/basedir"
	"github.com/formix/pubsub/internal/fifo"
)

// PublishOption adjusts a single Publish call.
type PublishOption func(*publishConfig)

type publishConfig struct {
	headers  map[string]string
	compress bool
}

// WithHeaders attaches metadata headers to the message.
func WithHeaders(h map[string]string) PublishOption {
	return func(cfg *publishConfig) { cfg.headers = h }
}

// WithCompression brotli-compresses the content before framing and
// marks the message with a content-encoding header. Fetch undoes it
// transparently.
func WithCompression() PublishOption {
	return func(cfg *publishConfig) { cfg.compress = true }
}

// Publish delivers content to every live channel whose topic pattern
// matches topic, and returns how many channels received it. The payload
// is written once to a scratch file under the bus tmp/ area, hardlinked
// into each matching channel directory, and announced with an 8-byte
// message ID pushed through the channel's pipe. Per-channel failures
// (no reader, full pipe, vanished directory) are logged and skipped;
// they never fail the call. Zero matches is not an error.
//
// The hardlink lands before the pipe token, so a fetcher that sees the
// token will find the payload already in place.
func Publish(topic string, content []byte, opts ...PublishOption) (int, error) {
	if err := ValidatePublishTopic(topic); err != nil {
		return 0, err
	}
	var cfg publishConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.compress {
		compressed, err := compressContent(content)
		if err != nil {
			return 0, err
		}
		content = compressed
		if cfg.headers == nil {
			cfg.headers = map[string]string{}
		}
		cfg.headers[headerContentEncoding] = encodingBrotli
	}

	msg := NewMessage(topic, content, cfg.headers)

	tmpDir := basedir.Tmp()
	if err := os.MkdirAll(tmpDir, 0o770); err != nil {
		return 0, fmt.Errorf("create scratch directory %s: %w", tmpDir, err)
	}
	scratch := filepath.Join(tmpDir, strconv.FormatUint(msg.ID, 10))
	if err := os.WriteFile(scratch, msg.Encode(), 0o660); err != nil {
		return 0, fmt.Errorf("write scratch payload: %w", err)
	}
	// The scratch file goes away on every exit path; recipients keep
	// their own hardlinked copies.
	defer os.Remove(scratch)

	dirs, err := MatchingActivePaths(topic)
	if err != nil {
		return 0, err
	}

	var token [8]byte
	binary.BigEndian.PutUint64(token[:], msg.ID)

	delivered := 0
	for _, dir := range dirs {
		if deliverTo(dir, scratch, msg.ID, token[:]) {
			delivered++
		}
	}

	metricPublished.Inc()
	metricDelivered.Add(float64(delivered))
	return delivered, nil
}

// deliverTo places the payload and the pipe token into one channel.
// Any failure is a skip: logged, counted, never surfaced. A payload
// hardlink left behind by a failed pipe write belongs to the channel
// and is reclaimed by its Close.
func deliverTo(dir, scratch string, id uint64, token []byte) bool {
	queue := filepath.Join(dir, queueName)
	if _, err := os.Stat(queue); err != nil {
		log.WithField("channel", dir).Warn("channel directory has no queue, skipping")
		metricFanoutSkips.WithLabelValues("missing_queue").Inc()
		return false
	}

	payload := filepath.Join(dir, strconv.FormatUint(id, 10))
	if err := os.Link(scratch, payload); err != nil {
		log.WithError(err).WithField("channel", dir).Warn("hardlinking payload failed, skipping")
		metricFanoutSkips.WithLabelValues("hardlink").Inc()
		return false
	}

	if err := fifo.WriteToken(queue, token); err != nil {
		reason := "pipe_write"
		if errors.Is(err, fifo.ErrNoReader) {
			reason = "no_reader"
		}
		log.WithError(err).WithField("channel", dir).Warn("pipe notification failed, skipping")
		metricFanoutSkips.WithLabelValues(reason).Inc()
		return false
	}
	return true
}
