package timetrack

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func entry(ts string, action Action, category, project string) Entry {
	return Entry{Timestamp: at(ts), Action: action, Category: category, Project: project}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want Entry
		desc string
	}{
		{
			"2024-03-04T09:00:00Z start work api",
			true,
			Entry{Timestamp: at("2024-03-04T09:00:00Z"), Action: ActionStart, Category: "work", Project: "api"},
			"minimal line",
		},
		{
			"2024-03-04T09:00:00+01:00 stop work api urgent review",
			true,
			Entry{Timestamp: at("2024-03-04T08:00:00Z"), Action: ActionStop, Category: "work", Project: "api", Tags: []string{"urgent", "review"}},
			"with tags and offset",
		},
		{"2024-03-04T09:00:00Z start work", false, Entry{}, "too few fields"},
		{"yesterday start work api", false, Entry{}, "bad timestamp"},
		{"", false, Entry{}, "empty line"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.True(t, tt.want.Timestamp.Equal(got.Timestamp))
			assert.Equal(t, tt.want.Action, got.Action)
			assert.Equal(t, tt.want.Category, got.Category)
			assert.Equal(t, tt.want.Project, got.Project)
			assert.Equal(t, tt.want.Tags, got.Tags)
		})
	}
}

func TestParseLineWithoutOffsetIsLocal(t *testing.T) {
	got, ok := ParseLine("2024-03-04T09:00:00 start work api")
	require.True(t, ok)
	assert.Equal(t, time.Local, got.Timestamp.Location())
	assert.Equal(t, 9, got.Timestamp.Hour())
}

func TestParseLineShortISOForms(t *testing.T) {
	tests := []struct {
		ts   string
		want time.Time
	}{
		{"2024-03-04T09:00:00.250", time.Date(2024, 3, 4, 9, 0, 0, 250e6, time.Local)},
		{"2024-03-04T09:00", time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local)},
		{"2024-03-04T09", time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local)},
		{"2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local)},
		{"2024-03-04T09:00+01:00", at("2024-03-04T08:00:00Z")},
	}

	for _, tt := range tests {
		t.Run(tt.ts, func(t *testing.T) {
			got, ok := ParseLine(tt.ts + " start work api")
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got.Timestamp), "got %v", got.Timestamp)
		})
	}
}

func TestEntryStringRoundTrip(t *testing.T) {
	e := Entry{Timestamp: at("2024-03-04T09:00:00Z"), Action: ActionStart, Category: "home", Project: "garden", Tags: []string{"outside"}}
	assert.Equal(t, "2024-03-04T09:00:00Z start home garden outside", e.String())

	parsed, ok := ParseLine(e.String())
	require.True(t, ok)
	assert.Equal(t, e.Tags, parsed.Tags)
}

func TestReadEntriesSkipsMalformed(t *testing.T) {
	log := strings.Join([]string{
		"2024-03-04T09:00:00Z start work api",
		"garbage",
		"not-a-date start work api",
		"2024-03-04T10:00:00Z stop work api",
	}, "\n")

	entries, err := ReadEntries(strings.NewReader(log))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPairFIFO(t *testing.T) {
	entries := []Entry{
		entry("2024-03-04T09:00:00Z", ActionStart, "work", "api"),
		entry("2024-03-04T09:30:00Z", ActionStart, "work", "api"),
		entry("2024-03-04T10:00:00Z", ActionStop, "work", "api"),
		entry("2024-03-04T10:15:00Z", ActionStop, "work", "api"),
		entry("2024-03-04T10:20:00Z", ActionStop, "work", "api"),
		entry("2024-03-04T11:00:00Z", ActionStop, "home", "garden"),
	}

	sessions := Pair(entries, at("2024-03-04T00:00:00Z"), at("2024-03-05T00:00:00Z"))
	require.Len(t, sessions, 2)
	assert.Equal(t, time.Hour, sessions[0].Duration(), "first stop closes the oldest start")
	assert.Equal(t, 45*time.Minute, sessions[1].Duration())
}

func TestPairWindowIsHalfOpen(t *testing.T) {
	entries := []Entry{
		entry("2024-03-03T23:00:00Z", ActionStart, "work", "api"),
		entry("2024-03-04T00:30:00Z", ActionStop, "work", "api"),
		entry("2024-03-04T00:00:00Z", ActionStart, "work", "db"),
		entry("2024-03-04T01:00:00Z", ActionStop, "work", "db"),
		entry("2024-03-04T23:00:00Z", ActionStart, "work", "ui"),
		entry("2024-03-05T00:00:00Z", ActionStop, "work", "ui"),
	}

	sessions := Pair(entries, at("2024-03-04T00:00:00Z"), at("2024-03-05T00:00:00Z"))
	require.Len(t, sessions, 1)
	assert.Equal(t, "db", sessions[0].Project)
}

func TestSummarizeUsesWallClockTime(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	entries := []Entry{
		entry("2024-03-04T23:30:00Z", ActionStart, "work", "api"),
		entry("2024-03-04T23:50:00Z", ActionStop, "work", "api"),
		entry("2024-03-04T08:00:00-05:00", ActionStart, "work", "db"),
		entry("2024-03-04T09:00:00-05:00", ActionStop, "work", "db"),
	}

	s := Summarize(entries, Day, time.Date(2024, 3, 4, 12, 0, 0, 0, berlin))
	assert.Equal(t, "1:20", s.Total)
	require.Len(t, s.Items, 2)
	assert.Equal(t, "db", s.Items[0].Project)
	assert.Equal(t, "api", s.Items[1].Project)
	assert.Equal(t, "0:20", s.Items[1].Display)

	next := Summarize(entries, Day, time.Date(2024, 3, 5, 12, 0, 0, 0, berlin))
	assert.True(t, next.Empty())
}

func TestPeriodRange(t *testing.T) {
	// Wednesday
	now := time.Date(2024, time.February, 14, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		period     Period
		start, end time.Time
	}{
		{Day, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{Week, time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC)},
		{Month, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Year, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end := tt.period.Range(now)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestWeekStartsMondayOnSunday(t *testing.T) {
	sunday := time.Date(2024, time.February, 18, 8, 0, 0, 0, time.UTC)
	start, _ := Week.Range(sunday)
	assert.Equal(t, time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC), start)
}

func TestDecemberMonthRange(t *testing.T) {
	start, end := Month.Range(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("Week")
	require.NoError(t, err)
	assert.Equal(t, Week, p)

	_, err = ParsePeriod("fortnight")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Contains(t, err.Error(), "day, week, month, year")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:00"},
		{5 * time.Minute, "0:05"},
		{90 * time.Minute, "1:30"},
		{25*time.Hour + 7*time.Minute + 30*time.Second, "25:07"},
		{-time.Minute, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, expected %q", tt.d, got, tt.want)
		}
	}
}

func sampleSummary() *Summary {
	entries := []Entry{
		entry("2024-03-04T08:00:00Z", ActionStart, "work", "api"),
		entry("2024-03-04T09:00:00Z", ActionStop, "work", "api"),
		entry("2024-03-04T09:00:00Z", ActionStart, "home", "garden"),
		entry("2024-03-04T11:30:00Z", ActionStop, "home", "garden"),
		entry("2024-03-04T12:00:00Z", ActionStart, "work", "db"),
		entry("2024-03-04T12:20:00Z", ActionStop, "work", "db"),
		entry("2024-03-04T13:00:00Z", ActionStart, "work", "api"),
		entry("2024-03-04T13:30:00Z", ActionStop, "work", "api"),
	}
	return Summarize(entries, Day, at("2024-03-04T18:00:00Z"))
}

func TestSummarizeTotalsAndOrder(t *testing.T) {
	s := sampleSummary()

	assert.Equal(t, "4:20", s.Total)
	require.Len(t, s.Items, 3)
	assert.Equal(t, "garden", s.Items[0].Project)
	assert.Equal(t, "2:30", s.Items[0].Display)
	assert.Equal(t, "api", s.Items[1].Project)
	assert.Equal(t, "1:30", s.Items[1].Display)
	assert.Equal(t, "db", s.Items[2].Project)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleSummary().WriteText(&buf))

	want := "Time Summary - This Day\n" +
		strings.Repeat("=", 50) + "\n" +
		"Total: 4:20\n" +
		"\n" +
		"Breakdown:\n" +
		"  home/\n" +
		"    garden: 2:30\n" +
		"\n" +
		"  work/\n" +
		"    api: 1:30\n" +
		"    db: 0:20\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	s := Summarize(nil, Month, at("2024-03-04T18:00:00Z"))
	require.NoError(t, s.WriteText(&buf))
	assert.Equal(t, "No tracked time found for this month.\n", buf.String())
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleSummary().WriteTable(&buf))

	out := buf.String()
	assert.Contains(t, out, "garden")
	assert.Contains(t, out, "2:30")
	assert.Contains(t, out, "4:20")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleSummary().WriteJSON(&buf))

	var decoded struct {
		Period  string `json:"period"`
		Seconds int64  `json:"seconds"`
		Items   []struct {
			Project  string `json:"project"`
			Duration string `json:"duration"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "day", decoded.Period)
	assert.EqualValues(t, 4*3600+20*60, decoded.Seconds)
	require.Len(t, decoded.Items, 3)
	assert.Equal(t, "2:30", decoded.Items[0].Duration)
}
