package timetrack

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

var (
	// ErrNoLog means the log file has never been written
	ErrNoLog = errors.New("no log file found")
	// ErrInvalidPeriod is returned for unknown summary periods
	ErrInvalidPeriod = errors.New("invalid period")
)

// Session is a matched start/stop pair
type Session struct {
	Category string
	Project  string
	Start    time.Time
	End      time.Time
}

// Duration of the session
func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Total is the tracked time for one category/project
type Total struct {
	Category string        `json:"category"`
	Project  string        `json:"project"`
	Duration time.Duration `json:"-"`
	Display  string        `json:"duration"`
	Seconds  int64         `json:"seconds"`
}

// Summary is the tracked time for a period
type Summary struct {
	Period  Period    `json:"period"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Total   string    `json:"total"`
	Seconds int64     `json:"seconds"`
	Items   []Total   `json:"items"`
}

// Empty reports whether no time was tracked
func (s *Summary) Empty() bool {
	return len(s.Items) == 0
}

type key struct {
	category string
	project  string
}

// Pair matches stops to starts within [start, end). Entry times are taken
// as wall-clock times in start's location. Starts queue FIFO per
// category/project and a stop closes the oldest pending start of its key.
// Entries outside the window, stops with no pending start and unknown
// actions are ignored.
func Pair(entries []Entry, start, end time.Time) []Session {
	pending := make(map[key][]time.Time)
	var sessions []Session

	for _, e := range entries {
		ts := e.WallClock(start.Location())
		if ts.Before(start) || !ts.Before(end) {
			continue
		}

		k := key{e.Category, e.Project}
		switch e.Action {
		case ActionStart:
			pending[k] = append(pending[k], ts)
		case ActionStop:
			queue := pending[k]
			if len(queue) == 0 {
				continue
			}
			sessions = append(sessions, Session{
				Category: e.Category,
				Project:  e.Project,
				Start:    queue[0],
				End:      ts,
			})
			pending[k] = queue[1:]
		}
	}

	return sessions
}

// Summarize totals the sessions of the period containing now
func Summarize(entries []Entry, period Period, now time.Time) *Summary {
	start, end := period.Range(now)
	sessions := Pair(entries, start, end)

	byKey := make(map[key]time.Duration)
	var order []key
	var total time.Duration
	for _, s := range sessions {
		k := key{s.Category, s.Project}
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] += s.Duration()
		total += s.Duration()
	}

	items := make([]Total, 0, len(order))
	for _, k := range order {
		d := byKey[k]
		items = append(items, Total{
			Category: k.category,
			Project:  k.project,
			Duration: d,
			Display:  FormatDuration(d),
			Seconds:  int64(d / time.Second),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Duration > items[j].Duration })

	return &Summary{
		Period:  period,
		Start:   start,
		End:     end,
		Total:   FormatDuration(total),
		Seconds: int64(total / time.Second),
		Items:   items,
	}
}

// WriteText renders the summary as a category/project tree
func (s *Summary) WriteText(w io.Writer) error {
	if s.Empty() {
		_, err := fmt.Fprintf(w, "No tracked time found for this %s.\n", s.Period)
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Time Summary - This %s\n", s.Period.Title())
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Total: %s\n\n", s.Total)
	b.WriteString("Breakdown:\n")

	current := ""
	for i, item := range s.Items {
		if i == 0 || item.Category != current {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "  %s/\n", item.Category)
			current = item.Category
		}
		fmt.Fprintf(&b, "    %s: %s\n", item.Project, item.Display)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteTable renders the summary with tablewriter
func (s *Summary) WriteTable(w io.Writer) error {
	if s.Empty() {
		_, err := fmt.Fprintf(w, "No tracked time found for this %s.\n", s.Period)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Category", "Project", "Time")
	for _, item := range s.Items {
		table.Append([]string{item.Category, item.Project, item.Display})
	}
	table.Footer("", "Total", s.Total)
	return table.Render()
}

// WriteJSON renders the summary as indented JSON
func (s *Summary) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}
