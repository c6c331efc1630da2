package domain

import "time"

// Role is a named authorization grant. Users carry role names in their
// access token claims.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}
