package frame

import (
	"errors"
	"fmt"
	"io"
)

// Stats holds cumulative reader counters. DroppedInvalidSize,
// DroppedInvalidFooter and DroppedReadError partition FramesDropped.
// Filtered frames count toward FramesRead, never toward FramesDropped.
type Stats struct {
	FramesRead           uint64
	FramesDropped        uint64
	DroppedInvalidSize   uint64
	DroppedInvalidFooter uint64
	DroppedReadError     uint64
	Filtered             uint64
}

// Sub returns the counter growth since prev.
func (s Stats) Sub(prev Stats) Stats {
	return Stats{
		FramesRead:           s.FramesRead - prev.FramesRead,
		FramesDropped:        s.FramesDropped - prev.FramesDropped,
		DroppedInvalidSize:   s.DroppedInvalidSize - prev.DroppedInvalidSize,
		DroppedInvalidFooter: s.DroppedInvalidFooter - prev.DroppedInvalidFooter,
		DroppedReadError:     s.DroppedReadError - prev.DroppedReadError,
		Filtered:             s.Filtered - prev.Filtered,
	}
}

// Reader extracts one frame per call from a byte stream and keeps running
// counters. A Reader owns its header and footer scratch space and must not be
// used from more than one goroutine at a time; use one Reader per stream.
//
// Reader never resynchronizes. After a size drop the stream is left just past
// the header; after a footer drop the payload and footer have been consumed.
type Reader struct {
	sink   Sink
	stats  Stats
	header [HeaderLen]byte
	footer [FooterLen]byte
}

// NewReader returns a Reader reporting drops to sink. A nil sink discards them.
func NewReader(sink Sink) *Reader {
	if sink == nil {
		sink = discard
	}
	return &Reader{sink: sink}
}

// Read returns the next payload from src, or nil if the frame was dropped or
// the stream is exhausted. Counters tell the cases apart: a stream that is
// already empty when Read is called is not counted as a dropped frame.
func (r *Reader) Read(src io.Reader) []byte {
	f, err := r.ReadFrame(src)
	if err != nil {
		return nil
	}
	return f.Payload
}

// ReadCategory is Read with the first payload byte required to equal category.
// Mismatching frames count as read, not dropped.
func (r *Reader) ReadCategory(src io.Reader, category byte) []byte {
	f, err := r.ReadFrameCategory(src, category)
	if err != nil {
		return nil
	}
	return f.Payload
}

// ReadFrame reads one frame from src. It returns io.EOF when src is exhausted
// before the first header byte; every other error is a counted drop.
func (r *Reader) ReadFrame(src io.Reader) (Frame, error) {
	return r.read(src, false, 0)
}

func (r *Reader) ReadFrameCategory(src io.Reader, category byte) (Frame, error) {
	return r.read(src, true, category)
}

func (r *Reader) read(src io.Reader, filter bool, category byte) (Frame, error) {
	n, err := io.ReadFull(src, r.header[:])
	if err != nil {
		switch {
		case n == 0 && errors.Is(err, io.EOF):
			return Frame{}, io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			return Frame{}, r.dropSize(Event{Available: -1, Partial: n}, ErrShortHeader)
		default:
			return Frame{}, r.dropReadError(Event{Available: -1}, err)
		}
	}

	h, err := DecodeHeader(r.header[:])
	if err != nil {
		return Frame{}, err
	}
	frameLen := int(h.Length)
	avail := -1
	if left, ok := Remaining(src); ok {
		avail = left + HeaderLen
	}
	ev := Event{FrameLength: frameLen, Available: avail}

	if avail >= 0 && frameLen > avail {
		return Frame{}, r.dropSize(ev, ErrFrameTooLong)
	}
	if frameLen < WrapLen {
		return Frame{}, r.dropSize(ev, ErrFrameTooShort)
	}

	payload := make([]byte, h.PayloadLen())
	if _, err := io.ReadFull(src, payload); err != nil {
		return Frame{}, r.dropBody(ev, err)
	}
	if _, err := io.ReadFull(src, r.footer[:]); err != nil {
		return Frame{}, r.dropBody(ev, err)
	}
	if i, v := ValidFooter(r.footer[:]); i >= 0 {
		r.stats.FramesDropped++
		r.stats.DroppedInvalidFooter++
		ev.Kind = EventInvalidFooter
		ev.FooterIndex = i
		ev.FooterValue = v
		ev.Err = ErrInvalidFooter
		r.sink(ev)
		return Frame{}, ErrInvalidFooter
	}

	r.stats.FramesRead++
	if filter && (len(payload) == 0 || payload[0] != category) {
		r.stats.Filtered++
		ev.Kind = EventFiltered
		if len(payload) > 0 {
			ev.Category = payload[0]
		}
		ev.Err = ErrCategoryFiltered
		r.sink(ev)
		return Frame{}, ErrCategoryFiltered
	}
	return Frame{Length: h.Length, Ticks: h.Ticks, Payload: payload}, nil
}

func (r *Reader) dropSize(ev Event, err error) error {
	r.stats.FramesDropped++
	r.stats.DroppedInvalidSize++
	ev.Kind = EventInvalidSize
	ev.Err = err
	r.sink(ev)
	return err
}

func (r *Reader) dropReadError(ev Event, err error) error {
	r.stats.FramesDropped++
	r.stats.DroppedReadError++
	ev.Kind = EventReadError
	ev.Err = fmt.Errorf("frame: read: %w", err)
	r.sink(ev)
	return ev.Err
}

// dropBody classifies a failed payload or footer read. Running out of bytes
// means the declared length was wrong for this stream.
func (r *Reader) dropBody(ev Event, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return r.dropSize(ev, ErrTruncated)
	}
	return r.dropReadError(ev, err)
}

func (r *Reader) Stats() Stats { return r.stats }

func (r *Reader) FramesRead() uint64 { return r.stats.FramesRead }

func (r *Reader) FramesDropped() uint64 { return r.stats.FramesDropped }

func (r *Reader) DroppedForInvalidSize() uint64 { return r.stats.DroppedInvalidSize }

func (r *Reader) DroppedForInvalidFooter() uint64 { return r.stats.DroppedInvalidFooter }
