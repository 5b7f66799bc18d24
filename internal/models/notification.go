package models

// Notification states and types of the notifications service catalog.
const (
	NotificationStatePending   = "Pendiente"
	NotificationStateResponded = "Respondida"

	NotificationTypeInvitation = "Invitations"
	NotificationTypeAccepted   = "Invitation_accepted"
	NotificationTypeRejected   = "invitation_rejected"
)

// CatalogEntry is a named id from a notifications service catalog (states or types).
type CatalogEntry struct {
	ID   int64
	Name string
}

// Device is a registered push delivery target of a user.
type Device struct {
	ID       int64  `json:"user_device_id,omitempty"`
	UserID   int64  `json:"user_id"`
	FCMToken string `json:"fcm_token"`
}

// Notification is the payload dispatched through the notifications service.
type Notification struct {
	Message             string  `json:"message"`
	UserID              int64   `json:"user_id"`
	NotificationTypeID  int64   `json:"notification_type_id"`
	InvitationID        int64   `json:"invitation_id"`
	NotificationStateID int64   `json:"notification_state_id"`
	FCMToken            *string `json:"fcm_token"`
	FCMTitle            string  `json:"fcm_title,omitempty"`
	FCMBody             string  `json:"fcm_body,omitempty"`
}
