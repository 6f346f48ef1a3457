// Package audit records every analysis, fetch and publish as a JSON-lines
// history.
package audit

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Event is one recorded command
type Event struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	User        string        `json:"user"`
	Operation   EventType     `json:"operation"`
	Routers     []string      `json:"routers,omitempty"`
	Source      string        `json:"source,omitempty"`
	AnalysisID  string        `json:"analysis_id,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	PrefixCount int           `json:"prefix_count"`
	PECCount    int           `json:"pec_count"`
	Skipped     int           `json:"skipped"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// EventType names the recorded operation
type EventType string

const (
	EventTypeAnalyze EventType = "analyze"
	EventTypeFetch   EventType = "fetch"
	EventTypePublish EventType = "publish"
	EventTypeDelete  EventType = "delete"
)

// Filter selects events. Zero fields match everything; Offset and Limit
// page through the matches.
type Filter struct {
	Router      string
	User        string
	Operation   EventType
	Fingerprint string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// Match reports whether e satisfies every set criterion
func (f Filter) Match(e *Event) bool {
	switch {
	case f.Router != "" && !slices.Contains(e.Routers, f.Router):
		return false
	case f.User != "" && e.User != f.User:
		return false
	case f.Operation != "" && e.Operation != f.Operation:
		return false
	case f.Fingerprint != "" && e.Fingerprint != f.Fingerprint:
		return false
	case !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime):
		return false
	case f.SuccessOnly && !e.Success, f.FailureOnly && e.Success:
		return false
	}
	return true
}

func (f Filter) page(events []*Event) []*Event {
	if f.Offset >= len(events) {
		return []*Event{}
	}
	events = events[max(f.Offset, 0):]
	if f.Limit > 0 && f.Limit < len(events) {
		events = events[:f.Limit]
	}
	return events
}

// NewEvent creates a new audit event
func NewEvent(user string, op EventType) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		User:      user,
		Operation: op,
	}
}

// WithRouters sets the analyzed or fetched routers
func (e *Event) WithRouters(routers ...string) *Event {
	e.Routers = routers
	return e
}

// WithSource records where configurations came from: file paths, an SSH
// host, or a Redis address.
func (e *Event) WithSource(source string) *Event {
	e.Source = source
	return e
}

// WithAnalysis copies the identifying numbers of an analysis
func (e *Event) WithAnalysis(id, fingerprint string, prefixes, pecs, skipped int) *Event {
	e.AnalysisID = id
	e.Fingerprint = fingerprint
	e.PrefixCount = prefixes
	e.PECCount = pecs
	e.Skipped = skipped
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// Finish sets the duration since the event was created and marks it
// successful when err is nil.
func (e *Event) Finish(err error) *Event {
	e.Duration = time.Since(e.Timestamp)
	if err != nil {
		return e.WithError(err)
	}
	return e.WithSuccess()
}
