package core

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/julien-sobczak/otlbook/pkg/resync"
)

var (
	// Lazy-load and ensure a single read
	loggerOnce      resync.Once
	loggerSingleton *Logger
)

type VerboseLevel int

const (
	VerboseOff VerboseLevel = iota
	VerboseInfo
	VerboseDebug
	VerboseTrace
)

func CurrentLogger() *Logger {
	loggerOnce.Do(func() {
		loggerSingleton = NewLogger()
	})
	return loggerSingleton
}

// Logger writes diagnostics on stderr. Stdout is reserved for command outputs.
type Logger struct {
	verbose VerboseLevel
	out     *log.Logger
}

func NewLogger() *Logger {
	return &Logger{
		verbose: VerboseOff,
		out:     log.New(os.Stderr, "", 0),
	}
}

// SetVerboseLevel overrides the default verbose level
func (l *Logger) SetVerboseLevel(level VerboseLevel) *Logger {
	l.verbose = level
	return l
}

// SetOutput redirects the logs. Useful in tests.
func (l *Logger) SetOutput(w io.Writer) *Logger {
	l.out.SetOutput(w)
	return l
}

func (l *Logger) Verbose() VerboseLevel {
	return l.verbose
}

func (l *Logger) Fatal(v ...any) {
	l.out.Println(color.RedString(fmt.Sprint(v...)))
	os.Exit(1)
}
func (l *Logger) Fatalf(format string, v ...any) {
	l.out.Println(color.RedString(format, v...))
	os.Exit(1)
}

func (l *Logger) Warn(v ...any) {
	l.out.Println(color.YellowString(fmt.Sprint(v...)))
}
func (l *Logger) Warnf(format string, v ...any) {
	l.out.Println(color.YellowString(format, v...))
}

func (l *Logger) Info(v ...any) {
	if l.verbose >= VerboseInfo {
		l.out.Println(v...)
	}
}
func (l *Logger) Infof(format string, v ...any) {
	if l.verbose >= VerboseInfo {
		l.out.Printf(format, v...)
	}
}

func (l *Logger) Debug(v ...any) {
	if l.verbose >= VerboseDebug {
		l.out.Println(v...)
	}
}
func (l *Logger) Debugf(format string, v ...any) {
	if l.verbose >= VerboseDebug {
		l.out.Printf(format, v...)
	}
}

func (l *Logger) Trace(v ...any) {
	if l.verbose >= VerboseTrace {
		l.out.Println(v...)
	}
}
func (l *Logger) Tracef(format string, v ...any) {
	if l.verbose >= VerboseTrace {
		l.out.Printf(format, v...)
	}
}
