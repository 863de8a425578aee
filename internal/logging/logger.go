package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	out     io.Writer = os.Stdout
	console           = false
)

// Setup configures the global level and output format. It is called once from main.
func Setup(level string, dev bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	console = dev
}

// SetOutput redirects every logger created afterwards. Tests use it to capture output.
func SetOutput(w io.Writer) {
	out = w
}

// New returns a logger tagged with the given component.
func New(component string) zerolog.Logger {
	var w io.Writer = out
	if console {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Str("component", component).Logger()
}

// Nop discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
