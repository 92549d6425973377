package shared

import "strings"

// DurationMode defines how a request consumes days
type DurationMode string

const (
	DurationFullDay          DurationMode = "FULL_DAY"
	DurationHalfDayMorning   DurationMode = "HALF_DAY_MORNING"
	DurationHalfDayAfternoon DurationMode = "HALF_DAY_AFTERNOON"
	DurationHourly           DurationMode = "HOURLY"
)

// ParseDurationMode maps a client-supplied mode to a DurationMode.
// Empty or unknown values fall back to FULL_DAY.
func ParseDurationMode(s string) DurationMode {
	switch DurationMode(strings.ToUpper(strings.TrimSpace(s))) {
	case DurationHalfDayMorning:
		return DurationHalfDayMorning
	case DurationHalfDayAfternoon:
		return DurationHalfDayAfternoon
	case DurationHourly:
		return DurationHourly
	default:
		return DurationFullDay
	}
}

// IsHalfDay reports whether the mode consumes half a day
func (m DurationMode) IsHalfDay() bool {
	return m == DurationHalfDayMorning || m == DurationHalfDayAfternoon
}

// RequestStatus defines leave request lifecycle states
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusApproved  RequestStatus = "APPROVED"
	StatusRejected  RequestStatus = "REJECTED"
	StatusCancelled RequestStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed
func (s RequestStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// CanTransitionTo encodes the lifecycle state machine.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected || next == StatusCancelled
	case StatusApproved:
		return next == StatusCancelled
	default:
		return false
	}
}

// Valid reports whether s is a known status
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// DecisionOutcome is an approver's verdict on a pending request
type DecisionOutcome string

const (
	OutcomeApprove DecisionOutcome = "APPROVE"
	OutcomeReject  DecisionOutcome = "REJECT"
)

// EventType names the lifecycle events emitted to the event sink
type EventType string

const (
	EventLeaveCreated   EventType = "leave.created"
	EventLeaveApproved  EventType = "leave.approved"
	EventLeaveRejected  EventType = "leave.rejected"
	EventLeaveCancelled EventType = "leave.cancelled"
)

// EventTypeFor returns the event emitted when a request enters status
func EventTypeFor(status RequestStatus) EventType {
	switch status {
	case StatusApproved:
		return EventLeaveApproved
	case StatusRejected:
		return EventLeaveRejected
	case StatusCancelled:
		return EventLeaveCancelled
	default:
		return EventLeaveCreated
	}
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
