package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/grind/pkg/colors"
	"github.com/harrisonrobin/grind/pkg/index"
	"github.com/harrisonrobin/grind/pkg/timer"
	"github.com/harrisonrobin/grind/pkg/util"
	"google.golang.org/api/calendar/v3"
)

// CalendarClient records tracked sessions as Google Calendar events.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	colors     *colors.ColorCache
}

func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, cache *colors.ColorCache) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx, colors: cache}
}

// RecordSession inserts one event spanning the session.
func (c *CalendarClient) RecordSession(ctx context.Context, s timer.Session) error {
	colorID := ""
	if c.colors != nil {
		colorID = c.colors.GetColorID(s.OrgID)
	}

	event, err := util.ConvertSessionToCalendarEvent(s, colorID)
	if err != nil {
		return err
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to insert calendar event: %w", err)
	}

	if c.index != nil {
		c.index.Set(s.TaskID, index.Entry{EventID: created.Id, Summary: created.Summary})
	}
	return c.save()
}

// MarkDone prefixes the task's last recorded event with the done marker.
// Tasks with no recorded session are left alone.
func (c *CalendarClient) MarkDone(ctx context.Context, taskID string) error {
	var entry index.Entry
	found := false
	if c.index != nil {
		entry, found = c.index.Get(taskID)
	}

	if !found {
		event, err := c.GetEventByTaskID(ctx, taskID)
		if err != nil {
			return fmt.Errorf("error searching for event: %w", err)
		}
		if event == nil {
			return nil
		}
		entry = index.Entry{EventID: event.Id, Summary: event.Summary}
	}

	summary := util.DoneSummary(entry.Summary)
	if summary == entry.Summary {
		return nil
	}

	if _, err := c.PatchEvent(ctx, entry.EventID, &calendar.Event{Summary: summary}); err != nil {
		return fmt.Errorf("unable to patch calendar event %s: %w", entry.EventID, err)
	}
	// A done task has nothing left to patch.
	if c.index != nil {
		c.index.Remove(taskID)
	}
	return c.save()
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// GetEventByTaskID returns the most recent event carrying the task id, or nil.
// Results are re-checked against the event's own task id property.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", util.TaskIDProperty, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	for i := len(events.Items) - 1; i >= 0; i-- {
		if id, ok := util.GetTaskIDFromEvent(events.Items[i]); ok && id == taskID {
			return events.Items[i], nil
		}
	}
	return nil, nil
}

func (c *CalendarClient) save() error {
	if c.index != nil {
		if err := c.index.Save(); err != nil {
			return fmt.Errorf("failed to save event index: %w", err)
		}
	}
	if c.colors != nil {
		if err := c.colors.Save(); err != nil {
			return fmt.Errorf("failed to save color cache: %w", err)
		}
	}
	return nil
}
