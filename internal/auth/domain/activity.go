package domain

import "time"

// ActivityEntry is one line of the user activity log written around HTTP
// actions. UserID is zero when the caller could not be identified.
type ActivityEntry struct {
	ID            int64
	UserID        int64
	Action        string
	Entity        string
	IPAddress     string
	UserAgent     string
	SessionID     string
	CorrelationID string
	CreatedAt     time.Time
}
