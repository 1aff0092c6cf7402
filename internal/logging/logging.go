// Package logging builds the console and file loggers used by both commands.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// QuietLevel hides routine progress while a progress bar owns the terminal.
const QuietLevel = log.WarnLevel

// New returns a logger writing to w with the given prefix.
func New(w io.Writer, prefix string, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// RunLog is a log file recreated at the start of every run.
type RunLog struct {
	Path string
	file *os.File
}

// Truncate opens path for writing, discarding any previous content.
func Truncate(path string) (*RunLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return &RunLog{Path: path, file: f}, nil
}

// Recreate deletes path if it exists and creates it empty.
func Recreate(path string) (*RunLog, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove old log file %s: %w", path, err)
	}
	return Truncate(path)
}

// Write implements io.Writer.
func (l *RunLog) Write(p []byte) (int, error) {
	return l.file.Write(p)
}

// Close closes the underlying file.
func (l *RunLog) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Tee returns a logger that mirrors every entry to console and file.
func Tee(console io.Writer, file io.Writer, prefix string, verbose bool) *log.Logger {
	return New(io.MultiWriter(console, file), prefix, verbose)
}
