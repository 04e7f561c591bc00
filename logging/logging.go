// Package logging sets up the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"sync"
)

// syncWriter serialises writes to a shared sink such as a UART.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// ParseLevel maps "debug", "info", "warn" and "error" (any case) to a level.
// Unknown strings fall back to info and report false.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO", "":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Init builds a text or JSON handler on w, installs it as the slog default
// and returns the logger.
func Init(w io.Writer, levelStr, formatStr string) *slog.Logger {
	level, _ := ParseLevel(levelStr)
	opts := &slog.HandlerOptions{Level: level}

	sw := &syncWriter{w: w}
	var handler slog.Handler
	if strings.EqualFold(formatStr, "json") {
		handler = slog.NewJSONHandler(sw, opts)
	} else {
		handler = slog.NewTextHandler(sw, opts)
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}
