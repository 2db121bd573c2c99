// Package audit provides a rotating-file JSON-lines audit sink for the
// bridge's command and transition events.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a single audit trail entry, mirroring the shape of the
// teacher's internal/audit.AuditLog record.
type Event struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Config controls the rotating file sink's target path and rotation
// thresholds.
type Config struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5
)

// Sink implements bridge.AuditSink by appending newline-delimited JSON
// records to Path, rotating to numbered backups once the file exceeds
// MaxSizeMB. No pack library provides file rotation, so this one concern
// is implemented directly on the standard library.
type Sink struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	file       *os.File
	size       int64
}

// Open creates (or appends to) the audit log at cfg.Path.
func Open(cfg Config) (*Sink, error) {
	maxSizeMB := cfg.MaxSizeMB
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxSizeMB
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("audit: create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("audit: stat log file: %w", err)
	}

	return &Sink{
		path:       cfg.Path,
		maxSize:    int64(maxSizeMB) * 1024 * 1024,
		maxBackups: maxBackups,
		file:       f,
		size:       info.Size(),
	}, nil
}

// RecordTransition appends an audit event. It never returns an error:
// a write failure is swallowed so audit trouble never affects command
// processing, per the bridge.AuditSink contract.
func (s *Sink) RecordTransition(_ context.Context, kind string, detail map[string]any) {
	ev := Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size+int64(len(line)) > s.maxSize {
		s.rotateLocked()
	}
	if s.file == nil {
		return
	}
	n, err := s.file.Write(line)
	if err == nil {
		s.size += int64(n)
	}
}

// rotateLocked closes the current file, shifts numbered backups up by
// one, and opens a fresh file at the original path. Called with mu
// already held.
func (s *Sink) rotateLocked() {
	s.file.Close()

	for i := s.maxBackups - 1; i >= 1; i-- {
		src := backupPath(s.path, i)
		dst := backupPath(s.path, i+1)
		if _, err := os.Stat(src); err == nil {
			os.Rename(src, dst)
		}
	}
	os.Rename(s.path, backupPath(s.path, 1))

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		// Fall back to discarding future writes rather than panicking;
		// RecordTransition must never disrupt command processing.
		s.file = nil
		s.size = 0
		return
	}
	s.file = f
	s.size = 0
}

func backupPath(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
