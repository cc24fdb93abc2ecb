package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendProfile is the target user as seen by a viewer.
type FriendProfile struct {
	ID                int64  `json:"id" db:"id" validate:"gt=0"`
	FullName          string `json:"fullName" db:"full_name" validate:"required"`
	PhoneNumber       string `json:"phoneNumber" db:"phone_number" validate:"required"`
	TotalFriendCount  int64  `json:"totalFriendCount" db:"total_friend_count" validate:"gte=0"`
	MutualFriendCount int64  `json:"mutualFriendCount" db:"mutual_friend_count" validate:"gte=0"`
}

// ProfileView records that a viewer opened a friend's profile.
type ProfileView struct {
	ID        uuid.UUID `json:"id"`
	ViewerID  int64     `json:"viewer_id"`
	TargetID  int64     `json:"target_id"`
	Timestamp int64     `json:"timestamp"` // epoch millis
}

// ViewedAt converts Timestamp back to a time.
func (v ProfileView) ViewedAt() time.Time {
	return time.UnixMilli(v.Timestamp)
}
