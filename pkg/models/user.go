package models

import "time"

// User represents a user profile document. FollowerCount, Rewarded and
// Blocked are derived fields owned by the engine; the API never writes them
// directly. Rewarded is monotonic — once true it is never reset.
type User struct {
	ID            string    `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	Email         string    `json:"email" db:"email"`
	FollowerCount int       `json:"follower_count" db:"follower_count"`
	Rewarded      bool      `json:"rewarded" db:"rewarded"`
	Blocked       bool      `json:"blocked" db:"blocked"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Snapshot returns the event-visible view of the user.
func (u User) Snapshot() UserSnapshot {
	return UserSnapshot{
		FollowerCount: u.FollowerCount,
		Rewarded:      u.Rewarded,
		Blocked:       u.Blocked,
	}
}

// CreateUserRequest is the request body for creating a user profile.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required" example:"jane_doe"`
	Email    string `json:"email" binding:"required,email" example:"jane@example.com"`
}

// UpdateUserRequest is the request body for updating a user profile.
type UpdateUserRequest struct {
	Username string `json:"username,omitempty" binding:"omitempty" example:"jane_doe"`
	Email    string `json:"email,omitempty" binding:"omitempty,email" example:"jane@example.com"`
}
