package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/platform/paths"
)

type LoggerService interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Success(msg string, fields ...Field)
	Close() error
}

// Field is a key/value pair appended to a log line.
type Field struct {
	Key   string
	Value any
}

func String(key, val string) Field { return Field{Key: key, Value: val} }
func Int(key string, val int) Field { return Field{Key: key, Value: val} }
func Any(key string, val any) Field { return Field{Key: key, Value: val} }

type service struct {
	mu     sync.Mutex
	logger *log.Logger
	file   *os.File
	debug  bool
}

func New(cfg config.Config) (LoggerService, error) {
	logPath, err := paths.LoggerFilePath()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	var out io.Writer = f
	if cfg.Debug {
		out = io.MultiWriter(os.Stderr, f)
	}

	return &service{
		logger: log.New(out, "", log.LstdFlags),
		file:   f,
		debug:  cfg.Debug,
	}, nil
}

func NewStderr() LoggerService {
	return &service{
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// NewWriter logs to w. Debug lines are kept only when debug is set.
func NewWriter(w io.Writer, debug bool) LoggerService {
	return &service{
		logger: log.New(w, "", 0),
		debug:  debug,
	}
}

func Nop() LoggerService {
	return NewWriter(io.Discard, false)
}

func (s *service) Debug(msg string, fields ...Field) {
	if !s.debug {
		return
	}
	s.write("DEBUG", msg, fields)
}

func (s *service) Info(msg string, fields ...Field) {
	s.write("INFO", msg, fields)
}

func (s *service) Error(msg string, err error, fields ...Field) {
	msg = strings.TrimSpace(msg)
	if err != nil {
		if msg == "" {
			msg = err.Error()
		} else {
			msg = msg + ": " + err.Error()
		}
	}
	s.write("ERROR", msg, fields)
}

func (s *service) Warn(msg string, fields ...Field) {
	s.write("WARN", msg, fields)
}

func (s *service) Success(msg string, fields ...Field) {
	s.write("OK", msg, fields)
}

func (s *service) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

func (s *service) write(level, msg string, fields []Field) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level)
	b.WriteString("] ")
	b.WriteString(msg)
	for _, f := range fields {
		if f.Key == "" {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Print(b.String())
}
