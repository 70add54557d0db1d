package tracker

import "sort"

type Status string

const (
	StatusApproved       Status = "Approved"
	StatusInProgress     Status = "In Progress"
	StatusReadyForReview Status = "Ready for Review"
	StatusCompleted      Status = "Completed"
)

var statusCodes = map[string]Status{
	"a":   StatusApproved,
	"ip":  StatusInProgress,
	"rfr": StatusReadyForReview,
	"c":   StatusCompleted,
}

// LookupStatus maps a short status code to its label.
func LookupStatus(code string) (Status, bool) {
	s, ok := statusCodes[code]
	return s, ok
}

// StatusCodes lists the accepted codes in a stable order.
func StatusCodes() []string {
	codes := make([]string, 0, len(statusCodes))
	for c := range statusCodes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// done reports whether s closes out the task's work.
func (s Status) done() bool {
	return s == StatusApproved || s == StatusCompleted
}
