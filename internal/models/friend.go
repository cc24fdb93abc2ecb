package models

import "time"

// FriendshipStatus is the state of one directed friendship edge.
type FriendshipStatus string

const (
	StatusPending  FriendshipStatus = "pending"
	StatusAccepted FriendshipStatus = "accepted"
	StatusDeclined FriendshipStatus = "declined"
)

// Valid reports whether s is one of the known statuses.
func (s FriendshipStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}

// Friendship is a directed edge UserID -> FriendUserID. A friendship is active only
// when both directions are accepted.
type Friendship struct {
	UserID       int64            `json:"userId" db:"user_id"`
	FriendUserID int64            `json:"friendUserId" db:"friend_user_id"`
	Status       FriendshipStatus `json:"status" db:"status"`
	UpdatedAt    time.Time        `json:"updatedAt,omitempty" db:"updated_at"`
}
