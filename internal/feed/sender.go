package feed

import (
	"fmt"
	"net"

	"github.com/danmuck/finalframe/internal/protocol/frame"
	"golang.org/x/net/ipv4"
)

// MaxDatagram is the largest UDP payload over IPv4.
const MaxDatagram = 65507

type SenderConfig struct {
	Addr         string
	MulticastTTL int
}

// Sender writes encoded frames to one UDP destination.
type Sender struct {
	conn net.Conn
	enc  *frame.Encoder
}

func Dial(cfg SenderConfig) (*Sender, error) {
	conn, err := net.Dial("udp4", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("feed: dial %s: %w", cfg.Addr, err)
	}
	if cfg.MulticastTTL > 0 {
		pc, ok := conn.(net.PacketConn)
		if !ok {
			conn.Close()
			return nil, fmt.Errorf("feed: %s is not a packet connection", cfg.Addr)
		}
		if err := ipv4.NewPacketConn(pc).SetMulticastTTL(cfg.MulticastTTL); err != nil {
			conn.Close()
			return nil, fmt.Errorf("feed: multicast ttl: %w", err)
		}
	}
	return &Sender{conn: conn, enc: frame.NewEncoder()}, nil
}

// Send writes payload as one frame in its own datagram.
func (s *Sender) Send(payload []byte) error {
	return s.enc.WriteFrame(s.conn, payload)
}

// SendBatch packs one frame per payload into a single datagram.
func (s *Sender) SendBatch(payloads [][]byte) error {
	var dgram []byte
	for i, p := range payloads {
		b, err := s.enc.Encode(p)
		if err != nil {
			return fmt.Errorf("feed: payload %d: %w", i, err)
		}
		dgram = append(dgram, b...)
	}
	if len(dgram) == 0 {
		return frame.ErrEmptyPayload
	}
	if len(dgram) > MaxDatagram {
		return fmt.Errorf("feed: batch of %d bytes exceeds datagram limit", len(dgram))
	}
	_, err := s.conn.Write(dgram)
	return err
}

func (s *Sender) Close() error {
	return s.conn.Close()
}
