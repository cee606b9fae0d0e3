package timetrack

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Action is what a log line records
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// Entry is one line of the time-tracking log:
// <timestamp> <action> <category> <project> [tags...]
type Entry struct {
	Timestamp time.Time
	Action    Action
	Category  string
	Project   string
	Tags      []string
}

// ParseLine parses a log line. ok is false for lines with fewer than four
// fields or an unparseable timestamp; those lines are skipped.
func ParseLine(line string) (Entry, bool) {
	parts := strings.Fields(line)
	if len(parts) < 4 {
		return Entry{}, false
	}

	ts, err := parseTimestamp(parts[0])
	if err != nil {
		return Entry{}, false
	}

	var tags []string
	if len(parts) > 4 {
		tags = parts[4:]
	}

	return Entry{
		Timestamp: ts,
		Action:    Action(parts[1]),
		Category:  parts[2],
		Project:   parts[3],
		Tags:      tags,
	}, true
}

// offsetLayouts carry a zone; localLayouts are read as local wall-clock time
var (
	offsetLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02T15",
		"2006-01-02",
	}
)

// parseTimestamp accepts ISO 8601 date-times with or without an offset,
// down to a bare date
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range offsetLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	var err error
	for _, layout := range localLayouts {
		var ts time.Time
		if ts, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}

// WallClock returns the timestamp's written date and time in loc, dropping
// its offset. Summaries compare wall-clock times, so 23:30Z counts as 23:30
// in whatever zone the summary runs in.
func (e Entry) WallClock(loc *time.Location) time.Time {
	ts := e.Timestamp
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), loc)
}

// String formats e as a log line without the trailing newline
func (e Entry) String() string {
	fields := []string{
		e.Timestamp.Format(time.RFC3339),
		string(e.Action),
		e.Category,
		e.Project,
	}
	return strings.Join(append(fields, e.Tags...), " ")
}

// Store reads and writes the log and current-session files in a data directory
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// LogPath is the append-only log file
func (s *Store) LogPath() string {
	return filepath.Join(s.dir, "log")
}

// CurrentPath holds the running session, if any
func (s *Store) CurrentPath() string {
	return filepath.Join(s.dir, "current")
}

// Append adds e to the log, creating the data directory if needed
func (s *Store) Append(e Entry) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	f, err := os.OpenFile(s.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, e.String()); err != nil {
		return fmt.Errorf("failed to write log: %w", err)
	}
	return nil
}

// Entries returns every parseable log entry in file order.
// ErrNoLog is returned when the log file does not exist.
func (s *Store) Entries() ([]Entry, error) {
	f, err := os.Open(s.LogPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoLog
		}
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	return ReadEntries(f)
}

// ReadEntries parses entries from r, skipping malformed lines
func ReadEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if e, ok := ParseLine(scanner.Text()); ok {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return entries, nil
}
