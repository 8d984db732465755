package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Sink receives resolved audit entries.
type Sink interface {
	Emit(ctx context.Context, e Entry) error
}

// LogSink writes entries to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("channel", "audit")}
}

func (s *LogSink) Emit(ctx context.Context, e Entry) error {
	s.logger.InfoContext(ctx, e.Description,
		"id", e.ID,
		"event", e.EventName,
		"type", e.Type,
		"user", e.User,
		"client_ip", e.ClientIP,
		"meta", e.Meta,
		"event_time", e.EventTime,
	)
	return nil
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{w: w}
}

// OpenFileSink appends JSON lines to the file at path, creating it if needed.
func OpenFileSink(path string) (*JSONWriterSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open audit file %s: %w", path, err)
	}
	return &JSONWriterSink{w: f, closer: f}, nil
}

func (s *JSONWriterSink) Emit(_ context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// Close releases the underlying file, if the sink owns one.
func (s *JSONWriterSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// MultiSink fans an entry out to every sink. All sinks are attempted; the
// returned error joins the individual failures.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that implements io.Closer.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
