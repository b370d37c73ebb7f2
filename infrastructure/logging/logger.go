package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SessionFilePrefix starts the name of every session log file
const SessionFilePrefix = "session_started_"

// Session is a JSON logger writing to a per-invocation log file
type Session struct {
	Logger *zap.Logger
	Path   string
	file   *os.File
}

// SessionFileName returns the log file name for a session started at t
func SessionFileName(t time.Time) string {
	return SessionFilePrefix + t.Format("20060102_150405") + ".log"
}

// NewSession creates dir if needed and opens a new session log inside it.
// level is a zap level name such as "debug" or "info"; empty means info.
func NewSession(dir, level string, started time.Time) (*Session, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, SessionFileName(started))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), lvl)
	logger := zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.AddSync(f)))

	return &Session{Logger: logger, Path: path, file: f}, nil
}

// Close flushes and closes the log file
func (s *Session) Close() error {
	_ = s.Logger.Sync()
	return s.file.Close()
}

// LogPanic records a recovered panic with its stack
func LogPanic(logger *zap.Logger, recovered any) {
	logger.Error("unhandled panic",
		zap.Any("panic", recovered),
		zap.Stack("stack"),
	)
	_ = logger.Sync()
}
