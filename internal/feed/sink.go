package feed

import (
	"github.com/danmuck/finalframe/internal/logging"
	"github.com/danmuck/finalframe/internal/protocol/frame"
	"github.com/rs/zerolog"
)

func frameSink(logger zerolog.Logger) frame.Sink {
	return logging.FrameSink(logger.With().Str("component", "feed").Logger())
}
