package models

import "time"

// Invitation is a pending request for a user to join a farm with a suggested role.
// The row existing is the pending state; it is deleted once accepted or rejected.
type Invitation struct {
	ID              int64     `json:"invitation_id"`
	InvitedUserID   int64     `json:"invited_user_id"`
	SuggestedRoleID int64     `json:"suggested_role_id"`
	FarmID          int64     `json:"farm_id"`
	InviterUserID   int64     `json:"inviter_user_id"`
	CreatedAt       time.Time `json:"invitation_date"`
}

// InvitationAction is the response a user gives to an invitation.
type InvitationAction string

const (
	ActionAccept InvitationAction = "accept"
	ActionReject InvitationAction = "reject"
)
