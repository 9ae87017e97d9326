// Package audit records mutating boot environment operations.
// Events are appended as JSON Lines (JSONL) to a single file in the state
// directory.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EventType classifies an operation.
type EventType string

const (
	EventCreate     EventType = "create"
	EventDestroy    EventType = "destroy"
	EventActivate   EventType = "activate"
	EventDeactivate EventType = "deactivate"
	EventRename     EventType = "rename"
	EventRollback   EventType = "rollback"
	EventSnapshot   EventType = "snapshot"
	EventDescribe   EventType = "describe"
	EventMount      EventType = "mount"
	EventUnmount    EventType = "unmount"
	EventInit       EventType = "init"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	BE        string    `json:"be"`
	Details   string    `json:"details,omitempty"`
}

// Logger appends and reads events in path.
type Logger struct {
	path string
	now  func() time.Time
}

// NewLogger creates a logger writing to path, usually {state_dir}/events.jsonl.
func NewLogger(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Path returns the log file location.
func (l *Logger) Path() string {
	return l.path
}

// Log appends an event.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent creates and logs an event stamped with the current time.
func (l *Logger) LogEvent(eventType EventType, be, details string) error {
	return l.Log(Event{Type: eventType, BE: be, Details: details})
}

// Events reads events in chronological order. A non-empty be keeps only
// that boot environment's events.
func (l *Logger) Events(be string) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		if be != "" && event.BE != be {
			continue
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}

	return events, nil
}
