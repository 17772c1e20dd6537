package models

import "time"

type NotificationType string

const (
	NotificationTypeApproval NotificationType = "approval"
	NotificationTypeDecline  NotificationType = "decline"
	NotificationTypeUpdate   NotificationType = "update"
	NotificationTypeGeneral  NotificationType = "general"
)

// Notification is immutable once created except for Read, which only ever
// transitions false to true. Deletion is a hard delete, no tombstone.
type Notification struct {
	ID        string           `json:"_id"`
	UserID    string           `json:"-"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	EventID   *string          `json:"eventId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
