// Package slog is a small leveled logger for the shell. Diagnostics meant
// for the user go through the console; this logger carries everything a
// user should not normally see, like unexpected errors swallowed at the
// REPL boundary.
package slog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
	levelOff
)

const separator = " - "

type Logger struct {
	logLevel int
	logger   *log.Logger
}

func NewLogger(prefix string) *Logger {
	return &Logger{
		logLevel: levelInfo,
		logger:   log.New(os.Stderr, prefix, log.LstdFlags|log.Lmsgprefix),
	}
}

// SetOutput redirects log output, e.g. into the console's writer so lines
// do not tear the prompt.
func (l *Logger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

func (l *Logger) WithDebug() { l.logLevel = levelDebug }
func (l *Logger) WithInfo()  { l.logLevel = levelInfo }
func (l *Logger) WithWarn()  { l.logLevel = levelWarn }
func (l *Logger) WithError() { l.logLevel = levelError }
func (l *Logger) WithOff()   { l.logLevel = levelOff }

func (l *Logger) Debugf(t string, args ...interface{}) {
	if l.logLevel <= levelDebug {
		l.logger.Printf("DEBU"+separator+t, args...)
	}
}

func (l *Logger) Infof(t string, args ...interface{}) {
	if l.logLevel <= levelInfo {
		l.logger.Printf("INFO"+separator+t, args...)
	}
}

func (l *Logger) Warnf(t string, args ...interface{}) {
	if l.logLevel <= levelWarn {
		l.logger.Printf("WARN"+separator+t, args...)
	}
}

func (l *Logger) Errorf(t string, args ...interface{}) {
	if l.logLevel <= levelError {
		l.logger.Printf("ERRO"+separator+t, args...)
	}
}

func (l *Logger) Fatalf(t string, args ...interface{}) {
	l.logger.Fatalf("FATA"+separator+t, args...)
}

// SetLevel parses a verbosity name.
func (l *Logger) SetLevel(verbosity string) error {
	switch strings.ToUpper(verbosity) {
	case "DEBUG":
		l.WithDebug()
	case "INFO":
		l.WithInfo()
	case "WARN":
		l.WithWarn()
	case "ERROR":
		l.WithError()
	case "OFF":
		l.WithOff()
	default:
		return fmt.Errorf("unknown log level %q", verbosity)
	}
	return nil
}
