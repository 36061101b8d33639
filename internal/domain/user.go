package domain

import "time"

// User is a support team member that issues get assigned to.
type User struct {
	ID       string
	Name     string
	Email    *string
	SyncedAt time.Time
}
