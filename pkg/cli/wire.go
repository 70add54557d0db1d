package cli

import (
	"context"
	"net/http"

	"github.com/harrisonrobin/grind/pkg/auth"
	"github.com/harrisonrobin/grind/pkg/colors"
	"github.com/harrisonrobin/grind/pkg/config"
	"github.com/harrisonrobin/grind/pkg/google"
	"github.com/harrisonrobin/grind/pkg/index"
	"github.com/harrisonrobin/grind/pkg/org"
	"github.com/harrisonrobin/grind/pkg/taskapi"
	"github.com/harrisonrobin/grind/pkg/timer"
	"github.com/harrisonrobin/grind/pkg/tracker"
	"github.com/harrisonrobin/grind/pkg/webhook"
	"go.uber.org/zap"
)

func newTracker(ctx context.Context, env *Env) (Tracker, error) {
	cfg := env.Config
	httpClient := &http.Client{Timeout: cfg.Timeout}

	var opts []tracker.Option
	if err := cfg.Webhook(); err != nil {
		env.Logger.Debug("approval webhook disabled", zap.Error(err))
	} else {
		opts = append(opts, tracker.WithWebhook(
			org.NewClient(ctx, cfg.OrgAPIURL, cfg.OrgToken, cfg.Timeout),
			webhook.NewClient(cfg.WebhookURL, httpClient),
		))
	}
	if cfg.Calendar != "" {
		opts = append(opts, tracker.WithCalendar(&lazyCalendar{env: env}))
	}

	tasks := taskapi.NewClient(cfg.APIURL, httpClient, env.Logger)
	return tracker.New(timer.NewFileStore(cfg.StateFile), tasks, env.Out, env.Logger, opts...), nil
}

func authorize(ctx context.Context, env *Env) error {
	dir, err := config.GetConfigDir()
	if err != nil {
		return err
	}
	return auth.Authorize(ctx, dir, env.Logger)
}

// lazyCalendar connects to Google Calendar on first use so commands that
// never record a session don't pay for the calendar lookup.
type lazyCalendar struct {
	env    *Env
	client *google.CalendarClient
}

func (l *lazyCalendar) get(ctx context.Context) (*google.CalendarClient, error) {
	if l.client != nil {
		return l.client, nil
	}

	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	idx, err := index.NewEventIndex(index.DefaultPath(dir))
	if err != nil {
		l.env.Logger.Warn("failed to load event index", zap.Error(err))
		idx = nil
	}
	cache, err := colors.NewColorCache(colors.DefaultPath(dir))
	if err != nil {
		l.env.Logger.Warn("failed to load color cache", zap.Error(err))
		cache = nil
	}

	client, err := google.NewClient(ctx, dir, l.env.Config.Calendar, idx, cache, l.env.Logger)
	if err != nil {
		return nil, err
	}
	l.client = client
	return client, nil
}

func (l *lazyCalendar) RecordSession(ctx context.Context, s timer.Session) error {
	client, err := l.get(ctx)
	if err != nil {
		return err
	}
	return client.RecordSession(ctx, s)
}

func (l *lazyCalendar) MarkDone(ctx context.Context, taskID string) error {
	client, err := l.get(ctx)
	if err != nil {
		return err
	}
	return client.MarkDone(ctx, taskID)
}
