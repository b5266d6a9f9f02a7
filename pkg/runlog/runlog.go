// Package runlog sets up structured logging for batch runs. Messages go to
// the console and are mirrored into an append-only run log file; surrounding
// automation greps that file (and the sentinel marker) instead of relying on
// process exit codes.
package runlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Markers written to the sentinel file at the end of a run.
const (
	MarkerError = "error 404 found"
	MarkerOK    = "no error"
)

// Run owns the log file handle for one batch invocation.
type Run struct {
	Log  *slog.Logger
	file *os.File
}

// New truncates the run log at path and returns a logger writing to both
// stderr and the file. A path of "" logs to stderr only.
func New(path string, level slog.Level) (*Run, error) {
	opts := &slog.HandlerOptions{Level: level}
	if path == "" {
		return &Run{Log: slog.New(slog.NewTextHandler(os.Stderr, opts))}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}
	h := slog.NewTextHandler(io.MultiWriter(os.Stderr, f), opts)
	return &Run{Log: slog.New(h), file: f}, nil
}

// Finish appends the sentinel marker and closes the log file. failed selects
// between the error and ok markers.
func (r *Run) Finish(failed bool) error {
	if r.file == nil {
		return nil
	}
	marker := MarkerOK
	if failed {
		marker = MarkerError
	}
	if _, err := fmt.Fprintln(r.file, marker); err != nil {
		return err
	}
	return r.file.Close()
}
