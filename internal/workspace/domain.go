// Package workspace stores which business a user is currently working in.
package workspace

import (
	"errors"
	"time"
)

var (
	// ErrNoSelection is returned when the user has not picked a business.
	ErrNoSelection = errors.New("workspace: no business selected")
	// ErrNotMember is returned when the user does not belong to the business.
	ErrNotMember = errors.New("workspace: not a member of business")
)

// Selection is the business a user currently works in.
type Selection struct {
	UserID     int64     `json:"user_id"`
	BusinessID int64     `json:"business_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Business is a tenant the user belongs to.
type Business struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}
