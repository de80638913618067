// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects where log output goes and how verbose it is
type Options struct {
	Level string
	// File receives JSON log lines when set. Empty means a console writer on Console.
	File    string
	Console io.Writer
}

// New returns the root logger and a closer for any file it opened
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		return zerolog.New(f).Level(level).With().Timestamp().Logger(), f, nil
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	w := zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nopCloser{}, nil
}

// Component returns a child logger tagged with the component name
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// ParseLevel maps a config string to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
