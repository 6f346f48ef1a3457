package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/newtron-network/netpec/pkg/util"
)

// Logger is an audit backend
type Logger interface {
	Log(event *Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

// FileLogger appends events to a JSON-lines file. Query reads rotated
// backups before the current file, so results are oldest first.
type FileLogger struct {
	mu       sync.RWMutex
	path     string
	file     *os.File
	rotation RotationConfig
}

// NewFileLogger opens (or creates) the log at path and its directory
func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	l := &FileLogger{path: path, rotation: rotation}
	if err := l.open(); err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return l, nil
}

func (l *FileLogger) open() error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// Log appends one event, rotating first when the file has reached MaxSize
func (l *FileLogger) Log(event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotation.due(l.file) {
		if err := l.rotate(); err != nil {
			return fmt.Errorf("rotating audit log: %w", err)
		}
	}
	_, err = l.file.Write(append(data, '\n'))
	return err
}

// Query returns the events matching filter. Malformed lines are logged and
// skipped. A missing log yields no events.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var events []*Event
	for _, path := range append(l.backups(), l.path) {
		found, err := readEvents(path, filter)
		if err != nil {
			return nil, err
		}
		events = append(events, found...)
	}
	return filter.page(events), nil
}

func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func readEvents(path string, filter Filter) ([]*Event, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for line := 1; scanner.Scan(); line++ {
		event := &Event{}
		if err := json.Unmarshal(scanner.Bytes(), event); err != nil {
			util.WithField("path", path).Warnf("audit: skipping malformed entry at line %d: %v", line, err)
			continue
		}
		if filter.Match(event) {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return events, nil
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// SetDefaultLogger installs the logger used by Log and Query. Nil disables
// auditing.
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

func current() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Log records event with the default logger, if any
func Log(event *Event) error {
	if l := current(); l != nil {
		return l.Log(event)
	}
	return nil
}

// Query searches the default logger. Without one there is no history.
func Query(filter Filter) ([]*Event, error) {
	if l := current(); l != nil {
		return l.Query(filter)
	}
	return []*Event{}, nil
}
