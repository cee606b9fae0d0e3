package timetrack

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrNotTracking is returned by Stop when no session is running
var ErrNotTracking = errors.New("not tracking anything")

// Current is the running session persisted in the current file
type Current struct {
	ID        string    `yaml:"id"`
	Category  string    `yaml:"category"`
	Project   string    `yaml:"project"`
	Tags      []string  `yaml:"tags,omitempty"`
	StartedAt time.Time `yaml:"started_at"`
}

// Elapsed is the time since the session started
func (c *Current) Elapsed(now time.Time) time.Duration {
	return now.Sub(c.StartedAt)
}

// Current returns the running session, or nil when nothing is tracked
func (s *Store) Current() (*Current, error) {
	data, err := os.ReadFile(s.CurrentPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read current session: %w", err)
	}

	var cur Current
	if err := yaml.Unmarshal(data, &cur); err != nil {
		return nil, fmt.Errorf("failed to parse current session: %w", err)
	}
	return &cur, nil
}

func (s *Store) writeCurrent(cur *Current) error {
	data, err := yaml.Marshal(cur)
	if err != nil {
		return fmt.Errorf("failed to encode current session: %w", err)
	}

	tmp := s.CurrentPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write current session: %w", err)
	}
	return os.Rename(tmp, s.CurrentPath())
}

// Start begins tracking category/project. A running session is stopped
// first and returned as stopped.
func (s *Store) Start(category, project string, tags []string, now time.Time) (started *Current, stopped *Current, err error) {
	if category == "" || project == "" {
		return nil, nil, errors.New("category and project are required")
	}

	stopped, err = s.Stop(now)
	if err != nil && !errors.Is(err, ErrNotTracking) {
		return nil, nil, err
	}

	started = &Current{
		ID:        uuid.NewString(),
		Category:  category,
		Project:   project,
		Tags:      tags,
		StartedAt: now.Truncate(time.Second),
	}

	if err := s.Append(Entry{
		Timestamp: started.StartedAt,
		Action:    ActionStart,
		Category:  category,
		Project:   project,
		Tags:      tags,
	}); err != nil {
		return nil, stopped, err
	}

	if err := s.writeCurrent(started); err != nil {
		return nil, stopped, err
	}

	return started, stopped, nil
}

// Stop ends the running session, logging a stop entry
func (s *Store) Stop(now time.Time) (*Current, error) {
	cur, err := s.Current()
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotTracking
	}

	if err := s.Append(Entry{
		Timestamp: now.Truncate(time.Second),
		Action:    ActionStop,
		Category:  cur.Category,
		Project:   cur.Project,
		Tags:      cur.Tags,
	}); err != nil {
		return nil, err
	}

	if err := os.Remove(s.CurrentPath()); err != nil {
		return nil, fmt.Errorf("failed to clear current session: %w", err)
	}

	return cur, nil
}
