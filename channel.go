package pubsub

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/formix/pubsub/internal/basedir"
	"github.com/formix/pubsub/internal/fifo"
	"github.com/formix/pubsub/internal/proc"
)

const (
	// queueName is the FIFO entry inside every channel directory.
	queueName = "queue"

	// pipeMode is rw-rw---- so sibling processes in the same group can
	// publish into the pipe.
	pipeMode = 0o660

	randomIDLen      = 12
	randomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Channel is a subscriber-owned rendezvous: a directory under the bus
// root plus a FIFO named "queue" inside it. Publishers hardlink payload
// files into the directory and push 8-byte message IDs through the
// FIFO. The directory name is {topic}_{randomID}_{pid}; the random
// component keeps same-topic channels from colliding.
type Channel struct {
	Topic     string
	PID       int
	RandomID  string
	Dir       string
	QueuePath string

	reader *fifo.Reader
}

// OpenChannel validates the topic (wildcards permitted), creates the
// channel directory under the bus root and the FIFO inside it. The
// caller owns the channel and must Close it to release the directory.
func OpenChannel(topic string) (*Channel, error) {
	if err := ValidateSubscribeTopic(topic); err != nil {
		return nil, err
	}
	c := &Channel{
		Topic:    topic,
		PID:      os.Getpid(),
		RandomID: randomID(),
	}
	c.Dir = filepath.Join(basedir.Dir(), fmt.Sprintf("%s_%s_%d", c.Topic, c.RandomID, c.PID))
	c.QueuePath = filepath.Join(c.Dir, queueName)

	if err := os.MkdirAll(c.Dir, 0o770); err != nil {
		return nil, &ChannelError{Op: "create directory", Path: c.Dir, Err: err}
	}
	if err := fifo.Mkfifo(c.QueuePath, pipeMode); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, &ChannelError{Op: "create pipe", Path: c.QueuePath, Err: err}
	}
	return c, nil
}

// OpenForReading opens the channel's FIFO read-only and non-blocking
// and keeps the descriptor for Fetch. Calling it again is a no-op.
func (c *Channel) OpenForReading() error {
	if c.reader != nil {
		return nil
	}
	r, err := fifo.OpenReader(c.QueuePath)
	if err != nil {
		return &ChannelError{Op: "open pipe", Path: c.QueuePath, Err: err}
	}
	c.reader = r
	return nil
}

// Close drops the read handle, removes every entry in the channel
// directory (the pipe and any unconsumed payload files) and then the
// directory itself. Entry removal is best effort; a directory that
// cannot be removed is reported. Pending messages are lost: the owner
// is giving up its subscription.
func (c *Channel) Close() error {
	if c.reader != nil {
		if err := c.reader.Close(); err != nil {
			log.WithError(err).WithField("channel", c.Dir).Warn("closing pipe reader failed")
		}
		c.reader = nil
	}
	entries, err := os.ReadDir(c.Dir)
	if err != nil && !os.IsNotExist(err) {
		return &ChannelError{Op: "remove directory", Path: c.Dir, Err: err}
	}
	for _, e := range entries {
		p := filepath.Join(c.Dir, e.Name())
		if err := os.Remove(p); err != nil {
			log.WithError(err).WithField("path", p).Warn("removing channel entry failed")
		}
	}
	if err := os.Remove(c.Dir); err != nil && !os.IsNotExist(err) {
		return &ChannelError{Op: "remove directory", Path: c.Dir, Err: err}
	}
	return nil
}

func (c *Channel) String() string {
	return fmt.Sprintf("Channel(topic=%q pid=%d id=%s)", c.Topic, c.PID, c.RandomID)
}

func randomID() string {
	b := make([]byte, randomIDLen)
	for i := range b {
		b[i] = randomIDAlphabet[rand.IntN(len(randomIDAlphabet))]
	}
	return string(b)
}

// parseChannelDir splits a channel directory name into its topic and
// owner PID. The last two underscore-delimited fields are the random ID
// and the PID; topics cannot contain underscores, but a stray one is
// tolerated by joining the leading fields back together.
func parseChannelDir(name string) (topic string, pid int, ok bool) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return "", 0, false
	}
	pid, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", 0, false
	}
	topic = strings.Join(parts[:len(parts)-2], "_")
	return topic, pid, true
}

// scanChannels enumerates channel directories under the bus root whose
// owner PID satisfies keep. The scan takes no lock; directories may
// appear or vanish while it runs and the caller must tolerate paths
// that are already gone.
func scanChannels(keep func(topic string, pid int) bool) ([]string, error) {
	root := basedir.Dir()
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		topic, pid, ok := parseChannelDir(e.Name())
		if !ok {
			continue // tmp/ and anything else that is not a channel
		}
		if keep(topic, pid) {
			paths = append(paths, filepath.Join(root, e.Name()))
		}
	}
	return paths, nil
}

// ActivePaths returns the channel directories whose owner process is
// still alive.
func ActivePaths() ([]string, error) {
	return scanChannels(func(_ string, pid int) bool { return proc.Alive(pid) })
}

// InactivePaths returns the channel directories left behind by dead
// owners. The bus never sweeps these itself; reclamation belongs to the
// caller, because an automatic sweeper would race legitimate channel
// startup.
func InactivePaths() ([]string, error) {
	return scanChannels(func(_ string, pid int) bool { return !proc.Alive(pid) })
}

// MatchingActivePaths returns the live channel directories whose topic
// pattern matches the given publish topic.
func MatchingActivePaths(topic string) ([]string, error) {
	return scanChannels(func(pattern string, pid int) bool {
		return proc.Alive(pid) && MatchTopic(pattern, topic)
	})
}

// ListActiveTopics returns the distinct topics of live channels,
// sorted. Handy for inspection and sweeper tooling.
func ListActiveTopics() ([]string, error) {
	paths, err := ActivePaths()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(paths))
	var topics []string
	for _, p := range paths {
		topic, _, ok := parseChannelDir(filepath.Base(p))
		if !ok {
			continue
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics, nil
}
