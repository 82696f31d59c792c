// Package logger provides centralized logging for DNS Switcher
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Level is the minimum severity written to the log.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag written in front of each message.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a preferences value into a Level. Unknown values map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

const logFileName = "dnsswitcher.log"

var (
	logFile  *os.File
	logMutex sync.Mutex
	logPath  string
	minLevel = LevelInfo
)

// Init opens the log file in the application support directory.
func Init() error {
	return InitAt(getLogDir())
}

// InitAt opens the log file inside dir.
func InitAt(dir string) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, logFileName)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logPath = path
	return nil
}

// CaptureStderr sends panics and runtime output to the log file.
func CaptureStderr() {
	logMutex.Lock()
	defer logMutex.Unlock()
	if logFile != nil {
		redirectStderr(logFile)
	}
}

// SetLevel changes the minimum level written to the log.
func SetLevel(l Level) {
	logMutex.Lock()
	minLevel = l
	logMutex.Unlock()
}

// Close closes the log file
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func write(level Level, format string, args ...interface{}) {
	logMutex.Lock()
	defer logMutex.Unlock()
	if level < minLevel {
		return
	}
	message := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("2006-01-02 15:04:05"), level, message)
	if logFile != nil {
		logFile.WriteString(line + "\n")
		logFile.Sync()
	}
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	write(LevelInfo, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	write(LevelError, format, args...)
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	write(LevelDebug, format, args...)
}

// Warning logs a warning message
func Warning(format string, args ...interface{}) {
	write(LevelWarn, format, args...)
}

// GetLogPath returns the path to the log file
func GetLogPath() string {
	logMutex.Lock()
	defer logMutex.Unlock()
	return logPath
}

// Recover should be deferred at the top of every goroutine to catch panics.
// Usage: go func() { defer logger.Recover("myGoroutine"); ... }()
func Recover(name string) {
	if r := recover(); r != nil {
		msg := fmt.Sprintf("PANIC in %s: %v\n%s", name, r, debug.Stack())
		Error("%s", msg)
	}
}

// SafeGo launches a goroutine with panic recovery.
func SafeGo(name string, fn func()) {
	go func() {
		defer Recover(name)
		fn()
	}()
}
