package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	return NewLogger(filepath.Join(t.TempDir(), "state", "events.jsonl"))
}

func TestLogger_LogAndEvents(t *testing.T) {
	logger := newTestLogger(t)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []Event{
		{Timestamp: now, Type: EventCreate, BE: "upgrade", Details: "source=default"},
		{Timestamp: now.Add(time.Second), Type: EventActivate, BE: "upgrade", Details: "temporary"},
		{Timestamp: now.Add(2 * time.Second), Type: EventSnapshot, BE: "default", Details: "default@pre"},
		{Timestamp: now.Add(3 * time.Second), Type: EventDestroy, BE: "upgrade"},
	}

	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	result, err := logger.Events("")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != len(events) {
		t.Fatalf("got %d events, want %d", len(result), len(events))
	}

	for i, e := range result {
		if e.Type != events[i].Type {
			t.Errorf("event %d: type = %q, want %q", i, e.Type, events[i].Type)
		}
		if e.BE != events[i].BE {
			t.Errorf("event %d: be = %q, want %q", i, e.BE, events[i].BE)
		}
		if e.Details != events[i].Details {
			t.Errorf("event %d: details = %q, want %q", i, e.Details, events[i].Details)
		}
		if !e.Timestamp.Equal(events[i].Timestamp) {
			t.Errorf("event %d: timestamp = %v, want %v", i, e.Timestamp, events[i].Timestamp)
		}
	}
}

func TestLogger_EventsFilter(t *testing.T) {
	logger := newTestLogger(t)

	logger.LogEvent(EventCreate, "a", "")
	logger.LogEvent(EventCreate, "b", "")
	logger.LogEvent(EventActivate, "a", "")

	got, err := logger.Events("a")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	for _, e := range got {
		if e.BE != "a" {
			t.Errorf("be = %q, want %q", e.BE, "a")
		}
	}
}

func TestLogger_EventsEmpty(t *testing.T) {
	logger := newTestLogger(t)

	result, err := logger.Events("")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != 0 {
		t.Errorf("got %d events, want 0", len(result))
	}
}

func TestLogger_LogEvent(t *testing.T) {
	logger := newTestLogger(t)
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	logger.now = func() time.Time { return fixed }

	if err := logger.LogEvent(EventRename, "old", "new=fresh"); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	events, err := logger.Events("old")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Type != EventRename {
		t.Errorf("type = %q, want %q", e.Type, EventRename)
	}
	if e.Details != "new=fresh" {
		t.Errorf("details = %q, want %q", e.Details, "new=fresh")
	}
	if !e.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", e.Timestamp, fixed)
	}
}

func TestLogger_SkipsMalformedLines(t *testing.T) {
	logger := newTestLogger(t)

	logger.LogEvent(EventCreate, "a", "")
	f, err := os.OpenFile(logger.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.WriteString("not json\n\n")
	f.Close()
	logger.LogEvent(EventDestroy, "a", "")

	events, err := logger.Events("")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}
