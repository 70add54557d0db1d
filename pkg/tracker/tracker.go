package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/grind/pkg/console"
	"github.com/harrisonrobin/grind/pkg/org"
	"github.com/harrisonrobin/grind/pkg/taskapi"
	"github.com/harrisonrobin/grind/pkg/timer"
	"github.com/harrisonrobin/grind/pkg/util"
	"github.com/harrisonrobin/grind/pkg/webhook"
	"go.uber.org/zap"
)

// TaskAPI is the remote task service.
type TaskAPI interface {
	GetTask(ctx context.Context, taskID string) (*taskapi.Task, error)
	PutTrackedTime(ctx context.Context, taskID string, tt taskapi.TrackedTime) (*taskapi.Response, error)
	PutStatus(ctx context.Context, taskID, status string) (*taskapi.Response, error)
	PostUpdate(ctx context.Context, taskID string, ev taskapi.UpdateEvent) (*taskapi.Response, error)
}

type Organizations interface {
	GetOrganization(ctx context.Context, orgID string) (*org.Organization, error)
}

type Notifier interface {
	Send(ctx context.Context, p webhook.Payload) error
}

// SessionRecorder keeps a log of tracked sessions outside the task API.
type SessionRecorder interface {
	RecordSession(ctx context.Context, s timer.Session) error
	MarkDone(ctx context.Context, taskID string) error
}

// Tracker starts and stops the single task timer and reports to the task API.
type Tracker struct {
	store    timer.Store
	tasks    TaskAPI
	orgs     Organizations
	notifier Notifier
	calendar SessionRecorder
	out      *console.Printer
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Tracker)

// WithWebhook enables the approval notification chain.
func WithWebhook(orgs Organizations, n Notifier) Option {
	return func(t *Tracker) {
		t.orgs = orgs
		t.notifier = n
	}
}

func WithCalendar(r SessionRecorder) Option {
	return func(t *Tracker) { t.calendar = r }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func New(store timer.Store, tasks TaskAPI, out *console.Printer, logger *zap.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		store:  store,
		tasks:  tasks,
		out:    out,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start records now as the start time of taskID, replacing any running timer.
func (t *Tracker) Start(taskID string) error {
	if prev, err := t.store.Load(); err == nil && prev.TaskID != taskID {
		t.logger.Warn("replacing running timer", zap.String("task_id", prev.TaskID))
	}

	if err := t.store.Save(timer.Record{TaskID: taskID, Start: t.now()}); err != nil {
		return fmt.Errorf("failed to save timer: %w", err)
	}
	t.out.Success("Started tracking task %s", taskID)
	return nil
}

// Stop ends the running timer and reports the time spent. The timer is
// cleared once everything has been sent, whatever the API answered.
func (t *Tracker) Stop(ctx context.Context) (err error) {
	rec, err := t.store.Load()
	if errors.Is(err, timer.ErrNoTimer) {
		t.out.Failure("No task is currently being tracked.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load timer: %w", err)
	}
	defer func() {
		if clearErr := t.store.Clear(); clearErr != nil && err == nil {
			err = fmt.Errorf("failed to clear timer: %w", clearErr)
		}
	}()

	end := t.now()
	elapsed := rec.Elapsed(end)
	t.out.Success("Stopped tracking task %s. Time spent: %s", rec.TaskID, util.FormatElapsed(elapsed))

	t.report(ctx, rec, end, elapsed)
	return nil
}

func (t *Tracker) report(ctx context.Context, rec timer.Record, end time.Time, elapsed time.Duration) {
	session := timer.Session{TaskID: rec.TaskID, Name: rec.TaskID, Start: rec.Start, End: end}

	task, err := t.tasks.GetTask(ctx, rec.TaskID)
	if err != nil {
		t.out.Failure("Failed to fetch task details.")
		t.printError(err)
	} else {
		if task.Name != "" {
			session.Name = task.Name
		}
		session.OrgID = task.OrgID
	}

	resp, putErr := t.tasks.PutTrackedTime(ctx, rec.TaskID, taskapi.TrackedTime{
		StartTime: timer.EpochSeconds(rec.Start),
		EndTime:   timer.EpochSeconds(end),
		Duration:  elapsed.Seconds(),
	})

	update := taskapi.UpdateEvent{
		Timestamp: timer.EpochSeconds(end),
		Details:   fmt.Sprintf("Tracked %s on %s", elapsed.Round(time.Second), session.Name),
	}
	if res, err := t.tasks.PostUpdate(ctx, rec.TaskID, update); err != nil {
		t.logger.Warn("failed to post update event", zap.String("task_id", rec.TaskID), zap.Error(err))
	} else if !res.OK() {
		t.logger.Warn("update event rejected", zap.String("task_id", rec.TaskID), zap.Int("status", res.StatusCode))
	}

	switch {
	case putErr != nil:
		t.out.Failure("Failed to update task with time spent.")
		t.printError(putErr)
	case resp.OK():
		t.out.Success("Successfully updated task with time spent.")
	default:
		t.out.Failure("Failed to update task with time spent.")
		t.printResponse(resp.StatusCode, resp.Body)
	}

	if t.calendar != nil {
		if err := t.calendar.RecordSession(ctx, session); err != nil {
			t.out.Failure("Failed to record session on calendar.")
			t.out.Hint("%v", err)
			t.logger.Debug("calendar record failed", zap.String("task_id", rec.TaskID), zap.Error(err))
		} else {
			t.logger.Debug("session recorded on calendar", zap.String("task_id", rec.TaskID), zap.Duration("elapsed", elapsed))
		}
	}
}

// UpdateStatus sets the task status from a short code. Unknown codes are
// rejected before anything is sent. Approving a task also sends the webhook
// notification, with duration shown as given.
func (t *Tracker) UpdateStatus(ctx context.Context, taskID, code, duration string) {
	status, ok := LookupStatus(code)
	if !ok {
		t.out.Failure("Invalid status code.")
		return
	}

	resp, err := t.tasks.PutStatus(ctx, taskID, string(status))
	switch {
	case err != nil:
		t.out.Failure("Failed to update task status.")
		t.printError(err)
	case resp.OK():
		t.out.Success("Successfully updated task status to %s.", status)
	default:
		t.out.Failure("Failed to update task status.")
		t.printResponse(resp.StatusCode, resp.Body)
	}

	if status == StatusApproved {
		t.SendToWebhook(ctx, taskID, duration)
	}

	if status.done() && t.calendar != nil {
		if err := t.calendar.MarkDone(ctx, taskID); err != nil {
			t.logger.Warn("could not mark calendar session done", zap.String("task_id", taskID), zap.Error(err))
		}
	}
}

// SendToWebhook posts a summary of the task and its organization to the
// configured webhook. Any failure only skips the notification.
func (t *Tracker) SendToWebhook(ctx context.Context, taskID, duration string) {
	if t.notifier == nil || t.orgs == nil {
		t.logger.Warn("webhook is not configured, skipping notification", zap.String("task_id", taskID))
		return
	}

	task, err := t.tasks.GetTask(ctx, taskID)
	if err != nil {
		t.out.Failure("Failed to fetch task details.")
		t.printError(err)
		return
	}

	o, err := t.orgs.GetOrganization(ctx, task.OrgID)
	if err != nil {
		t.out.Failure("Failed to fetch organization details.")
		t.out.Info("Error: %v", err)
		return
	}

	if err := t.notifier.Send(ctx, webhook.NewPayload(*task, o.Name, duration)); err != nil {
		t.out.Failure("Failed to send task to webhook.")
		t.out.Info("Error: %v", err)
		return
	}
	t.out.Success("Successfully sent task to webhook.")
}

func (t *Tracker) printError(err error) {
	var statusErr *taskapi.StatusError
	if errors.As(err, &statusErr) {
		t.printResponse(statusErr.StatusCode, statusErr.Body)
		return
	}
	t.out.Info("Error: %v", err)
}

func (t *Tracker) printResponse(code int, body string) {
	t.out.Info("Status code: %d", code)
	t.out.Info("Response body: %s", body)
}
