package main

import (
	"io"
	"log"
)

// logger is the server's logging sink. Like the teacher, logging is plain
// stdlib log.Printf-based (no structured-logging library appears anywhere
// in the retrieval pack); the only addition is a debug gate so per-line
// read/write tracing (net.go's old behavior, unconditional in the teacher)
// does not spam production output unless --debug is given.
type logger struct {
	*log.Logger
	debug bool
}

func newLogger(w io.Writer, debug bool) *logger {
	return &logger{
		Logger: log.New(w, "", log.LstdFlags),
		debug:  debug,
	}
}

func (l *logger) debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.Printf(format, args...)
}
