// Package logging is the driver's log facility. Records go to the console
// and to a log file. When the file cannot be opened yet because its
// directory does not exist, records are held in memory and Initialize asks
// for reinitialization; Reinitialize opens the file later and flushes what
// was held.
package logging

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/blacktop/go-hyperplatform/internal/status"
)

// maxBuffered bounds what is held in memory while the file is unavailable.
const maxBuffered = 1 << 20

// Options configures a Logger.
type Options struct {
	Level        string
	File         string
	FunctionName bool
	// Console receives human readable output. Defaults to os.Stderr.
	Console io.Writer
	App     string
}

// Logger is the log facility. The zerolog.Logger it hands out stays valid
// for the Logger's lifetime; records written outside Initialize..Terminate
// are discarded.
type Logger struct {
	opts     Options
	level    zerolog.Level
	levelErr error
	console  io.Writer
	out      switchWriter
	logger   zerolog.Logger

	mu     sync.Mutex
	sink   *sink
	active bool
}

// New returns a Logger that discards records until Initialize.
func New(opts Options) *Logger {
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.App == "" {
		opts.App = "hyperplatform"
	}
	l := &Logger{opts: opts, level: zerolog.InfoLevel}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		l.levelErr = status.New(status.InvalidParameter, fmt.Sprintf("logging: invalid level %q", opts.Level))
	} else {
		l.level = level
	}
	l.console = zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.RFC3339, NoColor: !isTerminal(opts.Console)}

	ctx := zerolog.New(&l.out).Level(l.level).With().Timestamp().Str("app", opts.App)
	if opts.FunctionName {
		ctx = ctx.Caller()
	}
	l.logger = ctx.Logger()
	return l
}

// Initialize opens the log. It returns status.ReinitializationNeeded when the
// log file directory is not there yet; the Logger is usable in that case.
func (l *Logger) Initialize() error {
	if l.levelErr != nil {
		return l.levelErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active {
		return status.New(status.Unsuccessful, "logging: already initialized")
	}
	s := &sink{}
	f, err := openLogFile(l.opts.File)
	switch {
	case err == nil:
		s.file = f
	case errors.Is(err, fs.ErrNotExist):
		s.buf = &bytes.Buffer{}
	default:
		return status.New(status.Unsuccessful, fmt.Sprintf("logging: %v", err))
	}
	l.sink = s
	l.active = true
	l.out.set(zerolog.MultiLevelWriter(l.console, s))

	if s.file == nil {
		l.logger.Debug().Str("file", l.opts.File).Msg("log file unavailable, buffering")
		return status.ReinitializationNeeded
	}
	return nil
}

// Reinitialize retries opening the log file and flushes buffered records into
// it. It returns status.ReinitializationNeeded while the directory is still
// missing.
func (l *Logger) Reinitialize(count int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.active {
		return status.New(status.Unsuccessful, "logging: reinitialize before initialize")
	}
	if l.sink.hasFile() {
		return nil
	}
	f, err := openLogFile(l.opts.File)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return status.ReinitializationNeeded
		}
		return status.New(status.Unsuccessful, fmt.Sprintf("logging: %v", err))
	}
	if err := l.sink.attach(f); err != nil {
		return status.New(status.Unsuccessful, fmt.Sprintf("logging: flush buffered records: %v", err))
	}
	l.logger.Info().Int("pass", count).Str("file", l.opts.File).Msg("log file opened")
	return nil
}

// Terminate flushes and closes the log. Records still held in memory are
// dropped.
func (l *Logger) Terminate() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.active {
		return
	}
	if dropped := l.sink.close(); dropped > 0 {
		l.logger.Warn().Int("bytes", dropped).Msg("buffered log records dropped")
	}
	l.out.set(nil)
	l.sink = nil
	l.active = false
}

// Zerolog returns the logger records should be written through.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}

// Buffered reports whether records are being held in memory.
func (l *Logger) Buffered() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active && !l.sink.hasFile()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func openLogFile(path string) (*os.File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("empty log file path")
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// switchWriter forwards to the current destination, or discards when there
// is none.
type switchWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.w == nil {
		return len(p), nil
	}
	return s.w.Write(p)
}

// sink is the file side of the log. It holds records in buf until a file is
// attached.
type sink struct {
	mu      sync.Mutex
	file    *os.File
	buf     *bytes.Buffer
	dropped int
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.file != nil:
		return s.file.Write(p)
	case s.buf != nil && s.buf.Len()+len(p) <= maxBuffered:
		return s.buf.Write(p)
	default:
		s.dropped += len(p)
		return len(p), nil
	}
}

func (s *sink) hasFile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file != nil
}

func (s *sink) attach(f *os.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf != nil {
		if _, err := s.buf.WriteTo(f); err != nil {
			f.Close()
			return err
		}
		s.buf = nil
	}
	s.file = f
	return nil
}

func (s *sink) close() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := s.dropped
	if s.buf != nil {
		dropped += s.buf.Len()
		s.buf = nil
	}
	if s.file != nil {
		s.file.Sync()
		s.file.Close()
		s.file = nil
	}
	return dropped
}
