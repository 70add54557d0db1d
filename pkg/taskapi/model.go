package taskapi

import (
	"fmt"
	"net/http"
)

// Task is the subset of the task resource grind reads.
type Task struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	OrgID       string `json:"orgId"`
}

// TrackedTime is the body of PUT /tasks/{id}/trackedTime. All values are
// seconds; start and end are Unix epoch seconds.
type TrackedTime struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Duration  float64 `json:"duration"`
}

type StatusUpdate struct {
	Status string `json:"status"`
}

// UpdateEvent is the body of POST /tasks/{id}/updates.
type UpdateEvent struct {
	Timestamp float64 `json:"timestamp"`
	Details   string  `json:"details"`
}

// Response is the raw outcome of a write call, kept so callers can report
// the status code and body back to the user.
type Response struct {
	StatusCode int
	Body       string
}

func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// StatusError is returned by reads that got a non-200 answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}
