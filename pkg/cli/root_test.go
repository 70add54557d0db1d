package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type call struct {
	method   string
	taskID   string
	code     string
	duration string
}

type fakeTracker struct {
	calls []call
}

func (f *fakeTracker) Start(taskID string) error {
	f.calls = append(f.calls, call{method: "start", taskID: taskID})
	return nil
}

func (f *fakeTracker) Stop(context.Context) error {
	f.calls = append(f.calls, call{method: "stop"})
	return nil
}

func (f *fakeTracker) UpdateStatus(_ context.Context, taskID, code, duration string) {
	f.calls = append(f.calls, call{method: "status", taskID: taskID, code: code, duration: duration})
}

func runCLI(t *testing.T, args ...string) (*fakeTracker, string, error) {
	t.Helper()
	fake := &fakeTracker{}
	var out bytes.Buffer
	cmd := NewRootCommand(Options{
		Out: &out,
		NewTracker: func(context.Context, *Env) (Tracker, error) {
			return fake, nil
		},
		Authorize: func(context.Context, *Env) error {
			fake.calls = append(fake.calls, call{method: "auth"})
			return nil
		},
	})
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return fake, out.String(), err
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []call
	}{
		{"start", []string{"42", "start"}, []call{{method: "start", taskID: "42"}}},
		{"stop", []string{"stop"}, []call{{method: "stop"}}},
		{"stop ignores task id", []string{"42", "stop"}, []call{{method: "stop"}}},
		{"status", []string{"42", "status", "ip"}, []call{{method: "status", taskID: "42", code: "ip"}}},
		{"status with duration", []string{"42", "status", "a", "-d", "1h"}, []call{{method: "status", taskID: "42", code: "a", duration: "1h"}}},
		{"status with long flag", []string{"--duration", "2h", "42", "status", "a"}, []call{{method: "status", taskID: "42", code: "a", duration: "2h"}}},
		{"auth", []string{"auth"}, []call{{method: "auth"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, out, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute failed: %v (output %s)", err, out)
			}
			if len(fake.calls) != len(tt.want) {
				t.Fatalf("Expected calls %+v, got %+v", tt.want, fake.calls)
			}
			for i := range tt.want {
				if fake.calls[i] != tt.want[i] {
					t.Errorf("Call %d: expected %+v, got %+v", i, tt.want[i], fake.calls[i])
				}
			}
		})
	}
}

func TestMissingArguments(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"start"}, "Please provide a task ID to start tracking."},
		{[]string{"status"}, "Please provide a task ID and a status to update."},
		{[]string{"42", "status"}, "Please provide a task ID and a status to update."},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			fake, out, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatalf("Expected missing arguments to be reported, not failed: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, out)
			}
			if len(fake.calls) != 0 {
				t.Errorf("Expected no tracker calls, got %+v", fake.calls)
			}
		})
	}
}

func TestInvalidInvocations(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"42", "pause"},
		{"a", "b", "c", "d"},
	} {
		if _, _, err := runCLI(t, args...); err == nil {
			t.Errorf("Expected error for args %v", args)
		}
	}
}

func TestTrackerBuildError(t *testing.T) {
	var out bytes.Buffer
	wantErr := errors.New("boom")
	cmd := NewRootCommand(Options{
		Out: &out,
		NewTracker: func(context.Context, *Env) (Tracker, error) {
			return nil, wantErr
		},
	})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "c.yaml"), "stop"})
	if err := cmd.ExecuteContext(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Expected %v, got %v", wantErr, err)
	}
}

func TestSetCalendar(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("webhook_url: https://hooks.example.com/xyz\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GRIND_ORG_TOKEN", "secret-from-env")

	var out bytes.Buffer
	fake := &fakeTracker{}
	cmd := NewRootCommand(Options{
		Out: &out,
		NewTracker: func(context.Context, *Env) (Tracker, error) {
			return fake, nil
		},
	})
	cmd.SetArgs([]string{"--config", cfgPath, "--set-calendar", "Work"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(out.String(), "Default calendar set to: Work") {
		t.Errorf("Expected confirmation, got %q", out.String())
	}
	if len(fake.calls) != 0 {
		t.Errorf("Expected no tracker calls, got %+v", fake.calls)
	}

	b, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	saved := string(b)
	if !strings.Contains(saved, "calendar: Work") {
		t.Errorf("Expected calendar in config file, got:\n%s", saved)
	}
	if !strings.Contains(saved, "hooks.example.com") {
		t.Errorf("Expected existing settings to be kept, got:\n%s", saved)
	}
	if strings.Contains(saved, "secret-from-env") {
		t.Errorf("Expected environment token to stay out of the file, got:\n%s", saved)
	}
}

func TestParseArgs(t *testing.T) {
	inv, err := parseArgs([]string{"task-1", "status", "rfr"})
	if err != nil {
		t.Fatal(err)
	}
	if inv.taskID != "task-1" || inv.command != "status" || inv.status != "rfr" {
		t.Errorf("Unexpected invocation %+v", inv)
	}
}
