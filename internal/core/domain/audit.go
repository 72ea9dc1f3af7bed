package domain

import "time"

// AuthEventType names the operation that produced an audit event.
type AuthEventType string

const (
	EventRegister AuthEventType = "register"
	EventLogin    AuthEventType = "login"
	EventRefresh  AuthEventType = "refresh"
	EventValidate AuthEventType = "validate"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuthEvent is one entry of the authentication audit trail.
type AuthEvent struct {
	Type       AuthEventType
	Email      string
	UserID     string // empty when the user could not be resolved
	Outcome    string
	Reason     string // failure reason, e.g. "invalid_credentials"
	OccurredAt time.Time
}
