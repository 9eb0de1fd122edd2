// Package logger holds the process-wide zerolog logger for librarian.
//
// cmd/librarian calls Init once; services take a Component sub-logger so
// every entry names the part of the system that wrote it:
//
//	{"level":"info","service":"librarian","component":"ledger","message":"book borrowed"}
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options mirrors the LOG_LEVEL and ENV settings.
type Options struct {
	Level   string    // trace, debug, info, warn or error; anything else is info
	Pretty  bool      // console output for ENV=development, JSON otherwise
	Output  io.Writer // os.Stdout when nil
	Service string    // "service" field on every entry
}

var (
	instance    zerolog.Logger
	once        sync.Once
	initialized bool
)

// Init builds the logger on first use and returns it. Later calls return the
// same logger and ignore opts.
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		if opts.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		lvl := parseLevel(opts.Level)
		zerolog.SetGlobalLevel(lvl)

		ctx := zerolog.New(out).
			Level(lvl).
			With().
			Timestamp().
			Caller()
		if opts.Service != "" {
			ctx = ctx.Str("service", opts.Service)
		}
		instance = ctx.Logger()

		initialized = true
	})
	return instance
}

// Get returns the logger built by Init and panics before it.
func Get() zerolog.Logger {
	if !initialized {
		panic("logger: Get() called before Init()")
	}
	return instance
}

// Component returns a child of the singleton tagged with a "component" field.
// Before Init it returns a disabled logger so library code never panics.
func Component(name string) zerolog.Logger {
	if !initialized {
		return zerolog.Nop()
	}
	return instance.With().Str("component", name).Logger()
}

// Reset forgets the logger so tests can Init with their own writer.
func Reset() {
	once = sync.Once{}
	instance = zerolog.Logger{}
	initialized = false
}

// parseLevel maps LOG_LEVEL to a zerolog level.
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
