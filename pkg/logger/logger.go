// Package logger owns the process-wide zerolog logger of the auth service.
//
// main calls Init once; packages that are not handed a logger explicitly ask
// for a tagged child with Component.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the root logger.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Anything else means info.
	Level string
	// Pretty switches to zerolog's console writer for local development.
	Pretty bool
	// Service, when set, is stamped on every event as "service".
	Service string
	// Caller adds the file:line of the log call.
	Caller bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	mu     sync.Mutex
	root   zerolog.Logger
	active bool
)

// Init builds the root logger on first use and returns it. Later calls return
// the existing logger and ignore opts.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if active {
		return root
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stdout
	if opts.Output != nil {
		w = opts.Output
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(level)

	lc := zerolog.New(w).Level(level).With().Timestamp()
	if opts.Service != "" {
		lc = lc.Str("service", opts.Service)
	}
	if opts.Caller {
		lc = lc.Caller()
	}

	root, active = lc.Logger(), true
	return root
}

// Get returns the root logger and panics when Init has not run.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if !active {
		panic("logger: Get() called before Init()")
	}
	return root
}

// Component returns a child of the root logger tagged with name.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset drops the root logger so tests can call Init again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	root, active = zerolog.Logger{}, false
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	switch lvl, err := zerolog.ParseLevel(s); {
	case err != nil, s == "", lvl < zerolog.TraceLevel, lvl > zerolog.ErrorLevel:
		return zerolog.InfoLevel
	default:
		return lvl
	}
}
