// Package corelog provides the structured logging abstraction used
// across corenet, so the logging implementation can be swapped (plain
// text for a terminal, JSON for a log shipper) without touching call
// sites.
package corelog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

// Logger is the structured logging interface every corenet package
// logs through.
type Logger interface {
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	// WithFields returns a logger that includes the given key/value
	// pairs on every subsequent entry.
	WithFields(fields map[string]interface{}) Logger

	// Close releases any underlying resource (an open file, for a
	// per-context log sink). No-op for loggers that don't own one.
	Close() error
}

// Config controls the default Logger implementation.
type Config struct {
	JSONOutput bool
	Writer     *os.File // defaults to os.Stdout for info/debug, os.Stderr for warn/error
}

type defaultLogger struct {
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger
	json        bool
	fields      map[string]interface{}
	owned       *os.File // set when this logger owns the underlying file (LOGON sinks)
}

// New creates a Logger writing to stdout/stderr.
func New(cfg Config) Logger {
	out, errOut := os.Stdout, os.Stderr
	if cfg.Writer != nil {
		out, errOut = cfg.Writer, cfg.Writer
	}
	return &defaultLogger{
		errorLogger: log.New(errOut, "[ERROR] ", log.LstdFlags|log.Lmicroseconds),
		warnLogger:  log.New(errOut, "[WARN] ", log.LstdFlags|log.Lmicroseconds),
		infoLogger:  log.New(out, "[INFO] ", log.LstdFlags|log.Lmicroseconds),
		debugLogger: log.New(out, "[DEBUG] ", log.LstdFlags|log.Lmicroseconds),
		json:        cfg.JSONOutput,
		fields:      map[string]interface{}{},
	}
}

// NewFile creates a Logger writing every level to a single file,
// matching a skynet-style per-service log sink (LOGON/LOGOFF).
func NewFile(path string, jsonOutput bool) (Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	l := New(Config{JSONOutput: jsonOutput, Writer: f}).(*defaultLogger)
	l.owned = f
	return l, nil
}

func Default() Logger { return New(Config{}) }

type entry struct {
	Time    string                 `json:"time,omitempty"`
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

func (l *defaultLogger) write(level string, dst *log.Logger, msg string) {
	if l.json {
		e := entry{Time: time.Now().UTC().Format(time.RFC3339Nano), Level: level, Message: msg}
		if len(l.fields) > 0 {
			e.Fields = l.fields
		}
		b, err := json.Marshal(e)
		if err != nil {
			dst.Output(3, fmt.Sprintf("[%s] %s %v", level, msg, l.fields))
			return
		}
		dst.Output(3, string(b))
		return
	}
	if len(l.fields) > 0 {
		dst.Output(3, fmt.Sprintf("%s %v", msg, l.fields))
		return
	}
	dst.Output(3, msg)
}

func (l *defaultLogger) Error(args ...interface{})                 { l.write("ERROR", l.errorLogger, fmt.Sprint(args...)) }
func (l *defaultLogger) Errorf(f string, args ...interface{})      { l.write("ERROR", l.errorLogger, fmt.Sprintf(f, args...)) }
func (l *defaultLogger) Warn(args ...interface{})                  { l.write("WARN", l.warnLogger, fmt.Sprint(args...)) }
func (l *defaultLogger) Warnf(f string, args ...interface{})       { l.write("WARN", l.warnLogger, fmt.Sprintf(f, args...)) }
func (l *defaultLogger) Info(args ...interface{})                  { l.write("INFO", l.infoLogger, fmt.Sprint(args...)) }
func (l *defaultLogger) Infof(f string, args ...interface{})       { l.write("INFO", l.infoLogger, fmt.Sprintf(f, args...)) }
func (l *defaultLogger) Debug(args ...interface{})                 { l.write("DEBUG", l.debugLogger, fmt.Sprint(args...)) }
func (l *defaultLogger) Debugf(f string, args ...interface{})      { l.write("DEBUG", l.debugLogger, fmt.Sprintf(f, args...)) }

func (l *defaultLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &defaultLogger{
		errorLogger: l.errorLogger,
		warnLogger:  l.warnLogger,
		infoLogger:  l.infoLogger,
		debugLogger: l.debugLogger,
		json:        l.json,
		fields:      merged,
	}
}

func (l *defaultLogger) Close() error {
	if l.owned != nil {
		return l.owned.Close()
	}
	return nil
}
