package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the logging level.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

type sink struct {
	level   Level
	logger  *log.Logger
	enabled bool
}

var (
	mu     sync.RWMutex
	global = &sink{enabled: false}
)

// Init initializes the process logger.
func Init(enabled bool, levelStr, logFile string, console bool) error {
	if !enabled {
		setSink(&sink{enabled: false})
		return nil
	}

	var writers []io.Writer
	if logFile != "" {
		dir := filepath.Dir(logFile)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
	}
	if console || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	SetOutput(io.MultiWriter(writers...), ParseLevel(levelStr))
	return nil
}

// SetOutput routes log lines to w at the given level.
func SetOutput(w io.Writer, level Level) {
	setSink(&sink{level: level, logger: log.New(w, "", 0), enabled: true})
}

func setSink(s *sink) {
	mu.Lock()
	global = s
	mu.Unlock()
}

// ParseLevel maps a config string to a Level, defaulting to Info.
func ParseLevel(levelStr string) Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return Debug
	case "info":
		return Info
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Fields carries key/value context appended to every line.
type Fields struct {
	kv []string
}

// With returns a field set; args alternate key and value.
func With(args ...interface{}) Fields {
	return Fields{}.With(args...)
}

// With extends the field set.
func (f Fields) With(args ...interface{}) Fields {
	kv := make([]string, len(f.kv), len(f.kv)+len(args))
	copy(kv, f.kv)
	for i := 0; i+1 < len(args); i += 2 {
		kv = append(kv, fmt.Sprintf("%v=%s", args[i], quote(fmt.Sprint(args[i+1]))))
	}
	return Fields{kv: kv}
}

func quote(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\"=") {
		return fmt.Sprintf("%q", v)
	}
	return v
}

func (f Fields) write(level Level, format string, args ...interface{}) {
	mu.RLock()
	s := global
	mu.RUnlock()
	if s == nil || !s.enabled || s.level > level {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, args...)
	if len(f.kv) > 0 {
		msg += " " + strings.Join(f.kv, " ")
	}
	s.logger.Println(fmt.Sprintf("[%s] [%s] %s", ts, level, msg))
}

// Debugf logs a debug message with fields.
func (f Fields) Debugf(format string, args ...interface{}) { f.write(Debug, format, args...) }

// Infof logs an info message with fields.
func (f Fields) Infof(format string, args ...interface{}) { f.write(Info, format, args...) }

// Warnf logs a warning with fields.
func (f Fields) Warnf(format string, args ...interface{}) { f.write(Warn, format, args...) }

// Errorf logs an error message with fields.
func (f Fields) Errorf(format string, args ...interface{}) { f.write(Error, format, args...) }

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) { Fields{}.write(Debug, format, args...) }

// Infof logs an info message.
func Infof(format string, args ...interface{}) { Fields{}.write(Info, format, args...) }

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) { Fields{}.write(Warn, format, args...) }

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) { Fields{}.write(Error, format, args...) }
