package notify

import "time"

// EventKind classifies an alert.
type EventKind string

const (
	// EventOpportunityFound fires for the best opportunity of a cycle.
	EventOpportunityFound EventKind = "opportunity_found"
	// EventSourceDown fires when a quote source stops serving.
	EventSourceDown EventKind = "source_down"
)

// Event is one alert dispatched to every configured channel.
type Event struct {
	ID    string
	Kind  EventKind
	Title string
	Body  string
	At    time.Time
}
