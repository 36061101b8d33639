package domain

import "time"

// Account is a customer organization.
type Account struct {
	ID       string
	Name     string
	Domain   *string
	SyncedAt time.Time
}
