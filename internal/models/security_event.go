package models

import "time"

// Security event types published by the abuse-protection core.
const (
	EventAccountLocked  = "account_locked"
	EventRateLimitBlock = "rate_limit_block"
	EventTokenRevoked   = "token_revoked"
)

// SecurityEvent is the fire-and-forget record emitted to the event stream
// when a protection mechanism engages.
type SecurityEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	EventTime  time.Time `json:"event_time"`
	Identifier string    `json:"identifier,omitempty"`
	Action     string    `json:"action,omitempty"`
	Details    string    `json:"details,omitempty"`
}
