package models

import (
	"fmt"
	"strings"
	"time"
)

// Record is the storage form of a task. Unknown JSON fields are ignored on
// decode and dropped on the next write.
type Record struct {
	ID          string       `json:"id,omitempty"`
	Type        TaskType     `json:"type"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   string       `json:"created_at"`
	CompletedAt *string      `json:"completed_at,omitempty"`
	Deadline    *string      `json:"deadline,omitempty"`
}

const (
	// DisplayLayout is used for deadline input and listing output.
	DisplayLayout = "2006-01-02 15:04"
)

// naive layouts carry no zone and are read in local time.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DisplayLayout,
	"2006-01-02",
}

func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTime reads RFC 3339 timestamps and the zone-less ISO-8601 forms.
func ParseTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 timestamp: %q", raw)
}
