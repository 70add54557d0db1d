package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/grind/pkg/auth"
	"github.com/harrisonrobin/grind/pkg/colors"
	"github.com/harrisonrobin/grind/pkg/index"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewClient creates a Google Calendar client for the calendar named
// calendarName, using the token stored in configDir.
func NewClient(ctx context.Context, configDir, calendarName string, idx *index.EventIndex, cache *colors.ColorCache, logger *zap.Logger) (*CalendarClient, error) {
	client, err := auth.GetClient(ctx, configDir, auth.CalendarScopes, logger)
	if err != nil {
		return nil, err
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}

	calendarID, err := FindCalendarID(ctx, srv, calendarName)
	if err != nil {
		return nil, err
	}
	return NewCalendarClient(srv, calendarID, idx, cache), nil
}

// FindCalendarID resolves a calendar summary to its id.
func FindCalendarID(ctx context.Context, srv *calendar.Service, calendarName string) (string, error) {
	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	for _, item := range calendarList.Items {
		if item.Summary == calendarName {
			return item.Id, nil
		}
	}
	return "", fmt.Errorf("calendar '%s' not found", calendarName)
}
