package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	HeaderLen  = 8
	FooterLen  = 4
	WrapLen    = HeaderLen + FooterLen
	FooterByte = 0xA5

	MaxFrameLen   = 0xFFFF
	MaxPayloadLen = MaxFrameLen - WrapLen
)

var (
	ErrEmptyPayload     = errors.New("frame: empty payload")
	ErrPayloadTooLarge  = errors.New("frame: payload too large")
	ErrShortHeader      = errors.New("frame: short header")
	ErrFrameTooShort    = errors.New("frame: declared length smaller than header and footer")
	ErrFrameTooLong     = errors.New("frame: declared length exceeds available stream")
	ErrTruncated        = errors.New("frame: truncated frame")
	ErrInvalidFooter    = errors.New("frame: invalid footer")
	ErrCategoryFiltered = errors.New("frame: category filtered")
)

// Frame is one decoded Final Frame packet.
type Frame struct {
	Length  uint16
	Ticks   uint32
	Payload []byte
}

// Header is the fixed 8-byte frame header. Reserved bytes are not kept.
type Header struct {
	Length uint16
	Ticks  uint32
}

func (h Header) PayloadLen() int {
	return int(h.Length) - WrapLen
}

func EncodeHeader(h Header) [HeaderLen]byte {
	var buf [HeaderLen]byte
	binary.BigEndian.PutUint16(buf[0:2], h.Length)
	putUint24(buf[5:8], h.Ticks)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, fmt.Errorf("frame: invalid header length: %d", len(b))
	}
	return Header{
		Length: binary.BigEndian.Uint16(b[0:2]),
		Ticks:  uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7]),
	}, nil
}

func putUint24(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// ValidFooter reports the index and value of the first footer byte that is
// not 0xA5, or -1 when the footer is intact.
func ValidFooter(b []byte) (int, byte) {
	for i, v := range b {
		if v != FooterByte {
			return i, v
		}
	}
	return -1, 0
}
