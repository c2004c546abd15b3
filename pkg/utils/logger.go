package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes engine logs to a rotating file under the project dotdir.
type Logger struct {
	logger  *log.Logger
	verbose bool
}

var (
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the singleton logger, backed by a rotating log file.
// The verbose flag controls whether process steps are echoed to stderr and
// may be changed on subsequent calls.
func GetLogger(verbose bool) *Logger {
	once.Do(func() {
		logFile := &lumberjack.Logger{
			Filename:   ".forged/forged.log",
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		globalLogger = &Logger{
			logger: log.New(logFile, "", log.LstdFlags),
		}
	})
	globalLogger.verbose = verbose
	return globalLogger
}

// NewLogger returns a logger writing to w, bypassing the rotating-file
// singleton. Intended for tests and embedding.
func NewLogger(w io.Writer, verbose bool) *Logger {
	return &Logger{logger: log.New(w, "", log.LstdFlags), verbose: verbose}
}

// Close closes the logger resources.
func (w *Logger) Close() error {
	if logFile, ok := w.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}

// Log logs a general message only to the log file.
func (w *Logger) Log(message string) {
	w.logger.Print(message)
}

// Logf logs a formatted general message only to the log file.
func (w *Logger) Logf(format string, v ...interface{}) {
	w.logger.Printf(format, v...)
}

// LogError logs an error to the log file.
func (w *Logger) LogError(err error) {
	w.logger.Printf("Error: %s", err)
}

// LogProcessStep logs the current step in a process, echoing to stderr
// when verbose.
func (w *Logger) LogProcessStep(step string) {
	w.logger.Printf("Process Step: %s", step)
	if w.verbose {
		fmt.Fprintln(os.Stderr, step)
	}
}
