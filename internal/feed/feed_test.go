package feed

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/finalframe/internal/protocol/frame"
	"github.com/danmuck/finalframe/internal/testutil/testlog"
)

type recordingObserver struct {
	mu        sync.Mutex
	total     frame.Stats
	datagrams int
	bytes     int
}

func (o *recordingObserver) ObserveStats(d frame.Stats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.total.FramesRead += d.FramesRead
	o.total.FramesDropped += d.FramesDropped
	o.total.DroppedInvalidSize += d.DroppedInvalidSize
	o.total.DroppedInvalidFooter += d.DroppedInvalidFooter
	o.total.Filtered += d.Filtered
}

func (o *recordingObserver) ObserveDatagram(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.datagrams++
	o.bytes += n
}

func encodeAll(t *testing.T, payloads ...[]byte) []byte {
	t.Helper()
	var out []byte
	enc := frame.NewEncoder()
	for _, p := range payloads {
		b, err := enc.Encode(p)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		out = append(out, b...)
	}
	return out
}

func TestHandleDatagramDeliversAllFrames(t *testing.T) {
	logger := testlog.Start(t)
	var got [][]byte
	obs := &recordingObserver{}
	l := NewListener(ListenerConfig{}, func(p []byte) { got = append(got, p) }, obs, logger)

	l.handleDatagram(encodeAll(t, []byte{62, 1}, []byte{48, 2, 2}, []byte{62, 3}))

	if len(got) != 3 || !bytes.Equal(got[1], []byte{48, 2, 2}) {
		t.Fatalf("unexpected payloads: %v", got)
	}
	if obs.total.FramesRead != 3 || obs.datagrams != 1 || obs.bytes != 7 {
		t.Fatalf("unexpected observations: %+v datagrams=%d bytes=%d", obs.total, obs.datagrams, obs.bytes)
	}
	stats, datagrams := l.Stats()
	if stats.FramesRead != 3 || datagrams != 1 {
		t.Fatalf("unexpected listener stats: %+v %d", stats, datagrams)
	}
}

func TestHandleDatagramCategoryFilter(t *testing.T) {
	logger := testlog.Start(t)
	var got [][]byte
	obs := &recordingObserver{}
	l := NewListener(ListenerConfig{HasCategory: true, Category: 62}, func(p []byte) { got = append(got, p) }, obs, logger)

	l.handleDatagram(encodeAll(t, []byte{62, 1}, []byte{48, 2}, []byte{62, 3}))

	if len(got) != 2 || got[0][1] != 1 || got[1][1] != 3 {
		t.Fatalf("unexpected payloads: %v", got)
	}
	if obs.total.FramesRead != 3 || obs.total.Filtered != 1 || obs.total.FramesDropped != 0 {
		t.Fatalf("unexpected observations: %+v", obs.total)
	}
}

func TestHandleDatagramStopsAtFirstDrop(t *testing.T) {
	logger := testlog.Start(t)
	var got [][]byte
	obs := &recordingObserver{}
	l := NewListener(ListenerConfig{}, func(p []byte) { got = append(got, p) }, obs, logger)

	dgram := encodeAll(t, []byte{1}, []byte{2}, []byte{3})
	// corrupt the footer of the second frame
	dgram[2*(frame.WrapLen+1)-1] = 0x00
	l.handleDatagram(dgram)

	if len(got) != 1 || got[0][0] != 1 {
		t.Fatalf("unexpected payloads: %v", got)
	}
	if obs.total.FramesDropped != 1 || obs.total.DroppedInvalidFooter != 1 {
		t.Fatalf("unexpected observations: %+v", obs.total)
	}

	// counters keep accumulating across datagrams, deltas do not double count
	l.handleDatagram(encodeAll(t, []byte{4}))
	if obs.total.FramesRead != 2 || obs.total.FramesDropped != 1 || obs.datagrams != 2 {
		t.Fatalf("unexpected observations after second datagram: %+v", obs.total)
	}
}

func TestHandleDatagramOversizeLength(t *testing.T) {
	logger := testlog.Start(t)
	obs := &recordingObserver{}
	l := NewListener(ListenerConfig{}, nil, obs, logger)

	dgram := encodeAll(t, []byte{1, 2, 3})
	dgram[1] = 0xF0
	l.handleDatagram(dgram)

	if obs.total.DroppedInvalidSize != 1 || obs.total.FramesRead != 0 {
		t.Fatalf("unexpected observations: %+v", obs.total)
	}
}

func TestListenerRunReceivesFromSender(t *testing.T) {
	logger := testlog.Start(t)
	payloads := make(chan []byte, 8)
	l := NewListener(ListenerConfig{Addr: "127.0.0.1:0"}, func(p []byte) { payloads <- p }, nil, logger)
	if err := l.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	s, err := Dial(SenderConfig{Addr: l.LocalAddr().String()})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer s.Close()

	if err := s.Send([]byte("first")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.SendBatch([][]byte{[]byte("second"), []byte("third")}); err != nil {
		t.Fatalf("send batch: %v", err)
	}

	want := []string{"first", "second", "third"}
	for _, w := range want {
		select {
		case p := <-payloads:
			if string(p) != w {
				t.Fatalf("unexpected payload: got %q want %q", p, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", w)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("listener did not stop")
	}
}

func TestSenderRejectsEmptyPayloads(t *testing.T) {
	s, err := Dial(SenderConfig{Addr: "127.0.0.1:9"})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer s.Close()

	if err := s.Send(nil); !errors.Is(err, frame.ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
	if err := s.SendBatch(nil); !errors.Is(err, frame.ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload for empty batch, got %v", err)
	}
	if err := s.SendBatch([][]byte{{1}, {}}); !errors.Is(err, frame.ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload for empty member, got %v", err)
	}
	if err := s.SendBatch([][]byte{make([]byte, 40000), make([]byte, 40000)}); err == nil {
		t.Fatalf("expected oversize batch to fail")
	}
}

func TestListenRejectsBadGroup(t *testing.T) {
	logger := testlog.Start(t)
	l := NewListener(ListenerConfig{Addr: "127.0.0.1:0", Group: "10.0.0.1"}, nil, nil, logger)
	if err := l.Listen(); err == nil {
		t.Fatalf("expected non-multicast group to fail")
	}
}
