package ulogger

import (
	"io"
	"os"
)

// Options holds the configurable knobs for constructing a Logger.
type Options struct {
	writer     io.Writer
	logLevel   string
	loggerType string
	skip       int
}

// Option mutates an Options struct when constructing a Logger.
type Option func(*Options)

// DefaultOptions returns the baseline options used by New when no
// overriding Option is supplied.
func DefaultOptions() *Options {
	return &Options{
		writer:     os.Stdout,
		logLevel:   "INFO",
		loggerType: "zerolog",
		skip:       0,
	}
}

// WithWriter overrides the destination the logger writes to.
func WithWriter(w io.Writer) Option {
	return func(o *Options) { o.writer = w }
}

// WithLevel sets the initial log level (DEBUG/INFO/WARN/ERROR/FATAL/PANIC).
func WithLevel(level string) Option {
	return func(o *Options) { o.logLevel = level }
}

// WithLoggerType selects the backing implementation ("zerolog" is the only
// one wired up in this module).
func WithLoggerType(loggerType string) Option {
	return func(o *Options) { o.loggerType = loggerType }
}

// WithSkipFrame adjusts how many stack frames are skipped when reporting
// the caller location.
func WithSkipFrame(skip int) Option {
	return func(o *Options) { o.skip = skip }
}
