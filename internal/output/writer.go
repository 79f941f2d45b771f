// internal/output/writer.go - Frame writing implementation
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// StdoutWriter writes frames to standard output
type StdoutWriter struct {
	formatter Formatter
	out       io.Writer
}

// NewStdoutWriter creates a new stdout-based writer
func NewStdoutWriter(config *WriterConfig) (*StdoutWriter, error) {
	formatter, err := NewFormatter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create formatter: %w", err)
	}
	return &StdoutWriter{formatter: formatter, out: os.Stdout}, nil
}

// Write writes a single frame to stdout
func (w *StdoutWriter) Write(frame *Frame) error {
	data, err := w.formatter.Format(frame)
	if err != nil {
		return fmt.Errorf("formatting failed: %w", err)
	}

	if _, err := w.out.Write(data); err != nil {
		return fmt.Errorf("write to stdout failed: %w", err)
	}
	// Trailing newline separates successive frames
	_, err = w.out.Write([]byte("\n"))
	return err
}

// Close is a no-op for stdout writer
func (w *StdoutWriter) Close() error {
	return nil
}

// FileWriter writes each frame to a fixed path, replacing the previous
// frame. Viewers watching the file always see the latest complete overlay.
type FileWriter struct {
	formatter Formatter
	path      string
}

// NewFileWriter creates a new single-file writer
func NewFileWriter(config *WriterConfig, path string) (*FileWriter, error) {
	formatter, err := NewFormatter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create formatter: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &FileWriter{
		formatter: formatter,
		path:      path,
	}, nil
}

// Write replaces the file contents with the frame. The write goes through a
// temporary file so a reader never observes a partial frame.
func (w *FileWriter) Write(frame *Frame) error {
	data, err := w.formatter.Format(frame)
	if err != nil {
		return fmt.Errorf("formatting failed: %w", err)
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("rename failed: %w", err)
	}
	return nil
}

// Close is a no-op for the single-file writer
func (w *FileWriter) Close() error {
	return nil
}

// TimestampedWriter writes each frame to its own timestamped file in a base
// directory, keeping the full poll history.
type TimestampedWriter struct {
	formatter Formatter
	baseDir   string
	prefix    string
	ext       string
	seq       int
}

// NewTimestampedWriter creates a writer that outputs each frame to a
// separate file under baseDir.
func NewTimestampedWriter(config *WriterConfig, baseDir string) (*TimestampedWriter, error) {
	formatter, err := NewFormatter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create formatter: %w", err)
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &TimestampedWriter{
		formatter: formatter,
		baseDir:   baseDir,
		prefix:    "heatmap",
		ext:       config.Format.Extension(),
	}, nil
}

// Write writes the frame to its own file
func (w *TimestampedWriter) Write(frame *Frame) error {
	data, err := w.formatter.Format(frame)
	if err != nil {
		return fmt.Errorf("formatting failed: %w", err)
	}

	path := filepath.Join(w.baseDir, w.filename(frame))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Close is a no-op for the timestamped writer
func (w *TimestampedWriter) Close() error {
	return nil
}

// filename builds a unique per-frame name; a sequence number disambiguates
// frames landing within the same second.
func (w *TimestampedWriter) filename(frame *Frame) string {
	at := frame.At
	if at.IsZero() {
		at = time.Now()
	}
	w.seq++
	return fmt.Sprintf("%s-%s-%04d%s", w.prefix, at.UTC().Format("20060102T150405"), w.seq, w.ext)
}

// NewWriter creates the appropriate writer based on configuration.
// An empty or "-" destination selects stdout; a directory destination
// selects timestamped per-frame files.
func NewWriter(config *WriterConfig, destination string, timestamped bool) (Writer, error) {
	if destination == "" || destination == "-" {
		return NewStdoutWriter(config)
	}
	if timestamped {
		return NewTimestampedWriter(config, destination)
	}
	return NewFileWriter(config, destination)
}
