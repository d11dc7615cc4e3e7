package types

import "time"

// Favorite is a user's chosen team. Each user has at most one.
type Favorite struct {
	ID int `json:"id" db:"id"`

	// UserID references the owning user.
	UserID int `json:"user" db:"user_id"`

	// Team is a free-form team name; it is not checked against any catalog.
	Team string `json:"team" db:"team"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
