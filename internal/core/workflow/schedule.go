package workflow

import (
	"strings"
	"time"
)

var scheduleLabels = []struct {
	label   string
	daysOut int
}{
	{"Research", 5},
	{"Draft", 3},
	{"Revise", 1},
	{"Final QA", 0},
}

// DeriveSchedule produces the four work blocks leading up to a due date.
// Each block starts at due minus its day offset minus two hours and lasts
// one hour. An empty or unparseable due date yields an empty schedule.
func DeriveSchedule(dueAt string) []ScheduleBlock {
	due, ok := parseDue(dueAt)
	if !ok {
		return []ScheduleBlock{}
	}
	blocks := make([]ScheduleBlock, 0, len(scheduleLabels))
	for _, l := range scheduleLabels {
		start := due.AddDate(0, 0, -l.daysOut).Add(-2 * time.Hour)
		end := start.Add(time.Hour)
		blocks = append(blocks, ScheduleBlock{
			Label: l.label,
			Start: FormatTimestamp(start),
			End:   FormatTimestamp(end),
		})
	}
	return blocks
}

func parseDue(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
