// Package logging configures the process-wide zerolog logger and hands out
// per-package sub-loggers.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats accepted by Init.
const (
	FormatColoured = "coloured"
	FormatPlain    = "plain"
	FormatJSON     = "json"
)

// Options selects the log format, destination and verbosity.
type Options struct {
	Format    string
	Verbosity int  // number of -v flags
	Debug     bool // debuglogging from the config file
	Output    io.Writer
}

// Init installs the global logger. It is called once from main before any
// goroutine logs.
func Init(opts Options) error {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var lg zerolog.Logger
	switch opts.Format {
	case FormatJSON:
		lg = zerolog.New(out)
	case FormatColoured, "":
		lg = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	case FormatPlain:
		lg = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true})
	default:
		return eris.Errorf("unknown log format %q", opts.Format)
	}

	log.Logger = lg.With().Timestamp().Logger()
	zerolog.SetGlobalLevel(Level(opts.Verbosity, opts.Debug))
	return nil
}

// Level maps the -v count and the debuglogging option to a zerolog level.
func Level(verbosity int, debug bool) zerolog.Level {
	switch {
	case verbosity >= 2:
		return zerolog.TraceLevel
	case verbosity == 1 || debug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// For returns a sub-logger tagged with the given component name.
func For(name string) *zerolog.Logger {
	l := log.Logger.With().Str("logger", name).Logger()
	return &l
}
