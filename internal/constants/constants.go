package constants

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyActor   = "actor"
	SessionCookieName = "volunteer_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Time logging
const (
	// MaxHoursPerEntry is the upper bound for a single time log entry.
	MaxHoursPerEntry = 24
	// HoursScale is the number of decimal places hours are rounded to.
	HoursScale = 2
)

// DefaultEventStream is the Redis stream lifecycle events are relayed to.
const DefaultEventStream = "volunteer-lifecycle-events"
