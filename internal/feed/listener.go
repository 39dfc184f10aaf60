package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/danmuck/finalframe/internal/protocol/frame"
	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"
)

// Handler receives each delivered payload. The slice is not reused.
type Handler func(payload []byte)

// StatsObserver receives counter deltas after every datagram.
type StatsObserver interface {
	ObserveStats(delta frame.Stats)
	ObserveDatagram(payloadBytes int)
}

type ListenerConfig struct {
	Addr        string
	Group       string
	Interface   string
	HasCategory bool
	Category    byte
	ReadBuffer  int
}

type Listener struct {
	cfg      ListenerConfig
	handler  Handler
	observer StatsObserver
	logger   zerolog.Logger
	reader   *frame.Reader

	conn  net.PacketConn
	group *ipv4.PacketConn
	ifi   *net.Interface

	mu        sync.Mutex
	stats     frame.Stats
	datagrams uint64
}

func NewListener(cfg ListenerConfig, handler Handler, observer StatsObserver, logger zerolog.Logger) *Listener {
	if cfg.ReadBuffer < frame.WrapLen {
		cfg.ReadBuffer = frame.MaxFrameLen
	}
	if handler == nil {
		handler = func([]byte) {}
	}
	return &Listener{
		cfg:      cfg,
		handler:  handler,
		observer: observer,
		logger:   logger,
		reader:   frame.NewReader(frameSink(logger)),
	}
}

// Listen binds the socket and joins the multicast group if one is set.
func (l *Listener) Listen() error {
	if l.conn != nil {
		return errors.New("feed: listener already bound")
	}
	conn, err := net.ListenPacket("udp4", l.cfg.Addr)
	if err != nil {
		return fmt.Errorf("feed: listen %s: %w", l.cfg.Addr, err)
	}
	if l.cfg.Group != "" {
		if err := l.join(conn); err != nil {
			conn.Close()
			return err
		}
	}
	l.conn = conn
	l.logger.Info().
		Str("addr", conn.LocalAddr().String()).
		Str("group", l.cfg.Group).
		Msg("feed listening")
	return nil
}

func (l *Listener) join(conn net.PacketConn) error {
	ip := net.ParseIP(l.cfg.Group)
	if ip == nil || !ip.IsMulticast() {
		return fmt.Errorf("feed: invalid multicast group %q", l.cfg.Group)
	}
	var ifi *net.Interface
	if l.cfg.Interface != "" {
		var err error
		ifi, err = net.InterfaceByName(l.cfg.Interface)
		if err != nil {
			return fmt.Errorf("feed: interface %s: %w", l.cfg.Interface, err)
		}
	}
	p := ipv4.NewPacketConn(conn)
	if err := p.JoinGroup(ifi, &net.UDPAddr{IP: ip}); err != nil {
		return fmt.Errorf("feed: join %s: %w", l.cfg.Group, err)
	}
	l.group = p
	l.ifi = ifi
	return nil
}

func (l *Listener) LocalAddr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Run reads datagrams until ctx is done or the socket fails. It binds the
// socket first if Listen was not called. Cancellation returns nil.
func (l *Listener) Run(ctx context.Context) error {
	if l.conn == nil {
		if err := l.Listen(); err != nil {
			return err
		}
	}
	defer l.close()

	stop := context.AfterFunc(ctx, func() { l.conn.Close() })
	defer stop()

	buf := make([]byte, l.cfg.ReadBuffer)
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("feed: read: %w", err)
		}
		l.logger.Trace().Int("bytes", n).Stringer("from", from).Msg("datagram")
		l.handleDatagram(buf[:n])
	}
}

func (l *Listener) close() {
	if l.group != nil {
		if err := l.group.LeaveGroup(l.ifi, &net.UDPAddr{IP: net.ParseIP(l.cfg.Group)}); err != nil {
			l.logger.Debug().Err(err).Msg("leave multicast group")
		}
	}
	l.conn.Close()
}

func (l *Listener) handleDatagram(b []byte) {
	src := bytes.NewReader(b)
	prev := l.reader.Stats()
	delivered := 0
	for src.Len() > 0 {
		var f frame.Frame
		var err error
		if l.cfg.HasCategory {
			f, err = l.reader.ReadFrameCategory(src, l.cfg.Category)
		} else {
			f, err = l.reader.ReadFrame(src)
		}
		if errors.Is(err, frame.ErrCategoryFiltered) {
			continue
		}
		if err != nil {
			break
		}
		delivered += len(f.Payload)
		l.handler(f.Payload)
	}

	cur := l.reader.Stats()
	l.mu.Lock()
	l.stats = cur
	l.datagrams++
	l.mu.Unlock()

	if l.observer != nil {
		l.observer.ObserveStats(cur.Sub(prev))
		l.observer.ObserveDatagram(delivered)
	}
}

// Stats returns the reader counters as of the last datagram. Safe to call
// from any goroutine.
func (l *Listener) Stats() (frame.Stats, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats, l.datagrams
}
