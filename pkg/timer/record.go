package timer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoTimer means no task is being tracked.
	ErrNoTimer = errors.New("no task is currently being tracked")
	// ErrMalformed means the stored timer record could not be parsed.
	ErrMalformed = errors.New("malformed timer record")
)

// Record is the single running timer: which task and when it started.
type Record struct {
	TaskID string
	Start  time.Time
}

// Elapsed returns the time since Start, never negative.
func (r Record) Elapsed(now time.Time) time.Duration {
	d := now.Sub(r.Start)
	if d < 0 {
		return 0
	}
	return d
}

// Session is a finished timer, enriched with task details for reporting.
type Session struct {
	TaskID string
	Name   string
	OrgID  string
	Start  time.Time
	End    time.Time
}

func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// EpochSeconds converts t to fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromEpochSeconds is the inverse of EpochSeconds.
func FromEpochSeconds(s float64) time.Time {
	sec := int64(s)
	nsec := int64((s - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// MarshalText encodes the record as "task_id,start_time".
func (r Record) MarshalText() ([]byte, error) {
	if r.TaskID == "" {
		return nil, fmt.Errorf("%w: empty task id", ErrMalformed)
	}
	start := strconv.FormatFloat(EpochSeconds(r.Start), 'f', -1, 64)
	return []byte(r.TaskID + "," + start), nil
}

// UnmarshalText parses "task_id,start_time". The split happens on the last
// comma so task ids that contain commas still round-trip.
func (r *Record) UnmarshalText(b []byte) error {
	line := strings.TrimRight(string(b), "\r\n")
	i := strings.LastIndex(line, ",")
	if i <= 0 {
		return fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	start, err := strconv.ParseFloat(line[i+1:], 64)
	if err != nil {
		return fmt.Errorf("%w: bad start time %q: %v", ErrMalformed, line[i+1:], err)
	}
	r.TaskID = line[:i]
	r.Start = FromEpochSeconds(start)
	return nil
}
