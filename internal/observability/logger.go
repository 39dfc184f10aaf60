package observability

import (
	"github.com/danmuck/finalframe/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the runtime logger and returns a child tagged with app.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	return log.With().Str("app", app).Logger()
}
