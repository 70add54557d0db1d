package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/grind/pkg/timer"
	"google.golang.org/api/calendar/v3"
)

const (
	// TaskIDProperty is the private extended property linking an event to its task.
	TaskIDProperty = "grind_task_id"

	donePrefix = "✓"
)

// FormatElapsed renders d as "H hours, M minutes, S.SS seconds".
func FormatElapsed(d time.Duration) string {
	hours := int(d / time.Hour)
	rem := d % time.Hour
	minutes := int(rem / time.Minute)
	seconds := (rem % time.Minute).Seconds()
	return fmt.Sprintf("%d hours, %d minutes, %.2f seconds", hours, minutes, seconds)
}

// ConvertSessionToCalendarEvent builds the calendar event for one tracked session.
func ConvertSessionToCalendarEvent(s timer.Session, colorID string) (*calendar.Event, error) {
	if s.TaskID == "" {
		return nil, fmt.Errorf("could not convert session without a task id")
	}
	if !s.End.After(s.Start) {
		return nil, fmt.Errorf("session for task %s has no duration", s.TaskID)
	}

	summary := s.Name
	if summary == "" {
		summary = s.TaskID
	}

	var descBuilder strings.Builder
	descBuilder.WriteString(fmt.Sprintf("Task: %s\n", s.TaskID))
	if s.OrgID != "" {
		descBuilder.WriteString(fmt.Sprintf("Organization: %s\n", s.OrgID))
	}
	descBuilder.WriteString("\nAccounting:\n")
	descBuilder.WriteString(fmt.Sprintf("• spent: %s\n", s.Duration().Round(time.Second)))

	return &calendar.Event{
		Summary:     summary,
		ColorId:     colorID,
		Description: descBuilder.String(),
		Start: &calendar.EventDateTime{
			DateTime: s.Start.UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: s.End.UTC().Format(time.RFC3339),
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: s.TaskID,
			},
		},
	}, nil
}

// DoneSummary prefixes summary with the completed marker once.
func DoneSummary(summary string) string {
	if strings.HasPrefix(summary, donePrefix) {
		return summary
	}
	return donePrefix + " " + summary
}

// GetTaskIDFromEvent returns the task id stored on an event by ConvertSessionToCalendarEvent.
func GetTaskIDFromEvent(event *calendar.Event) (string, bool) {
	if event == nil || event.ExtendedProperties == nil {
		return "", false
	}
	id, ok := event.ExtendedProperties.Private[TaskIDProperty]
	return id, ok && id != ""
}
