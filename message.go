package pubsub

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// Wire frame constants. Every frame opens with the magic ("PMSG") and a
// version byte; all integers are big-endian.
const (
	frameMagic         = 0x504D5347
	frameVersion uint8 = 1
)

// fixed bytes per frame: magic 4 + version 1 + id 8 + timestamp 8 +
// three 4-byte length prefixes.
const frameFixedLen = 33

// Message is the unit of delivery. Content is arbitrary bytes; Headers
// is an optional string-to-string mapping carried as JSON on the wire.
type Message struct {
	ID        uint64
	Timestamp time.Time
	Topic     string
	Headers   map[string]string
	Content   []byte
}

// idSeq feeds the low 16 bits of minted IDs. It starts at a random
// value and advances by one per message, so one process repeats an ID
// only if it mints more than 65,536 messages within one 65,536 µs
// window of the clock.
var idSeq atomic.Uint32

func init() { idSeq.Store(rand.Uint32()) }

// NewMessage mints a message for the given topic. The ID is the current
// time in microseconds since the Unix epoch with the low 16 bits
// replaced by the next value of idSeq, so two messages minted in the
// same microsecond by one process still differ.
func NewMessage(topic string, content []byte, headers map[string]string) *Message {
	now := time.Now().UTC()
	us := uint64(now.UnixMicro())
	id := us&^uint64(0xFFFF) | uint64(idSeq.Add(1)&0xFFFF)
	return &Message{
		ID:        id,
		Timestamp: time.UnixMicro(now.UnixMicro()).UTC(),
		Topic:     topic,
		Headers:   headers,
		Content:   content,
	}
}

func (m *Message) String() string {
	return fmt.Sprintf("Message(id=%d topic=%q len=%d)", m.ID, m.Topic, len(m.Content))
}

// Encode serialises the message into one self-delimiting frame. The
// encoding is deterministic: equal messages produce equal bytes
// (JSON object keys are emitted in sorted order).
func (m *Message) Encode() []byte {
	headers := m.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	// Marshal of a map[string]string cannot fail.
	headerJSON, _ := json.Marshal(headers)

	buf := make([]byte, 0, frameFixedLen+len(m.Topic)+len(headerJSON)+len(m.Content))
	buf = binary.BigEndian.AppendUint32(buf, frameMagic)
	buf = append(buf, frameVersion)
	buf = binary.BigEndian.AppendUint64(buf, m.ID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(m.Timestamp.UnixMicro()))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Topic)))
	buf = append(buf, m.Topic...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Content)))
	buf = append(buf, m.Content...)
	return buf
}

// Write streams the encoded frame to w.
func (m *Message) Write(w io.Writer) error {
	if _, err := w.Write(m.Encode()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Decode parses one frame from b.
func Decode(b []byte) (*Message, error) {
	return Read(bytes.NewReader(b))
}

// Read parses one frame from r. Fields are consumed strictly in wire
// order; a stream that ends inside any field is rejected with a
// truncated-frame DecodeError. There is no frame length cap here; the
// caller may layer one externally.
func Read(r io.Reader) (*Message, error) {
	var fixed [8]byte

	if err := readExactly(r, fixed[:4], "magic"); err != nil {
		return nil, err
	}
	if magic := binary.BigEndian.Uint32(fixed[:4]); magic != frameMagic {
		return nil, decodeErrorf(ErrBadMagic, "0x%08X", magic)
	}

	if err := readExactly(r, fixed[:1], "version"); err != nil {
		return nil, err
	}
	if v := fixed[0]; v != frameVersion {
		return nil, decodeErrorf(ErrBadVersion, "version %d", v)
	}

	if err := readExactly(r, fixed[:8], "id"); err != nil {
		return nil, err
	}
	id := binary.BigEndian.Uint64(fixed[:8])

	if err := readExactly(r, fixed[:8], "timestamp"); err != nil {
		return nil, err
	}
	ts := time.UnixMicro(int64(binary.BigEndian.Uint64(fixed[:8]))).UTC()

	topicBytes, err := readLengthPrefixed(r, "topic")
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(topicBytes) {
		return nil, decodeErrorf(ErrBadUTF8, "topic is not valid utf-8")
	}

	headerJSON, err := readLengthPrefixed(r, "headers")
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(headerJSON) {
		return nil, decodeErrorf(ErrBadUTF8, "headers are not valid utf-8")
	}
	headers := map[string]string{}
	if err := json.Unmarshal(headerJSON, &headers); err != nil {
		return nil, decodeErrorf(ErrBadHeaders, "%v", err)
	}

	content, err := readLengthPrefixed(r, "content")
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		Timestamp: ts,
		Topic:     string(topicBytes),
		Headers:   headers,
		Content:   content,
	}, nil
}

// readExactly loops until the buffer is full or the stream ends. Any
// shortfall is fatal to the frame.
func readExactly(r io.Reader, b []byte, field string) error {
	n, err := io.ReadFull(r, b)
	if err != nil {
		return decodeErrorf(ErrTruncatedFrame, "%s: got %d of %d bytes", field, n, len(b))
	}
	return nil
}

func readLengthPrefixed(r io.Reader, field string) ([]byte, error) {
	var pfx [4]byte
	if err := readExactly(r, pfx[:], field+" length"); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(pfx[:])
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if err := readExactly(r, b, field); err != nil {
		return nil, err
	}
	return b, nil
}
