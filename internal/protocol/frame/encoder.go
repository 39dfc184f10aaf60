package frame

import (
	"io"
	"time"
)

const tickMask = 1<<24 - 1

// Encoder wraps payloads in Final Frame packets. The zero value is ready to
// use and safe for concurrent callers: no buffers are shared between calls.
type Encoder struct {
	// Clock supplies the frame time. Nil means time.Now.
	Clock func() time.Time
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Ticks returns the low 24 bits of hundredths of a second since the Unix epoch.
func Ticks(t time.Time) uint32 {
	return uint32(t.UnixMilli()/10) & tickMask
}

// Encode returns a new buffer holding payload framed with header and footer.
// Empty payloads yield ErrEmptyPayload and nothing must be sent.
func (e *Encoder) Encode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLarge
	}

	total := WrapLen + len(payload)
	out := make([]byte, total)
	hdr := EncodeHeader(Header{Length: uint16(total), Ticks: Ticks(e.now())})
	copy(out, hdr[:])
	copy(out[HeaderLen:], payload)
	for i := total - FooterLen; i < total; i++ {
		out[i] = FooterByte
	}
	return out, nil
}

// WriteFrame encodes payload and writes the frame to w in one call.
func (e *Encoder) WriteFrame(w io.Writer, payload []byte) error {
	b, err := e.Encode(payload)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (e *Encoder) now() time.Time {
	if e == nil || e.Clock == nil {
		return time.Now()
	}
	return e.Clock()
}
