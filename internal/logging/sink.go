package logging

import (
	"github.com/danmuck/finalframe/internal/protocol/frame"
	"github.com/rs/zerolog"
)

// FrameSink logs reader drops. Structural drops are warnings, stream
// failures are errors and category filtering is debug noise.
func FrameSink(logger zerolog.Logger) frame.Sink {
	return func(ev frame.Event) {
		var e *zerolog.Event
		msg := "final frame dropped"
		switch ev.Kind {
		case frame.EventReadError:
			e = logger.Error()
		case frame.EventFiltered:
			e = logger.Debug().Uint8("category", ev.Category)
			msg = "final frame filtered"
		case frame.EventInvalidFooter:
			e = logger.Warn().
				Int("footer_index", ev.FooterIndex).
				Uint8("footer_value", ev.FooterValue)
		default:
			e = logger.Warn()
			if ev.Partial > 0 {
				e = e.Int("partial_header", ev.Partial)
			}
		}
		e.Str("reason", ev.Kind.String()).
			Int("frame_len", ev.FrameLength).
			Int("available", ev.Available).
			Err(ev.Err).
			Msg(msg)
	}
}
