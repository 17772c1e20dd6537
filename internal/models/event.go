package models

import "time"

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

type Event struct {
	ID          string      `json:"_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	VenueID     *string     `json:"venueId,omitempty"`
	OrganizerID string      `json:"organizerId"`
	StartsAt    time.Time   `json:"startsAt"`
	EndsAt      time.Time   `json:"endsAt"`
	TicketPrice int64       `json:"ticketPrice"` // cents, 0 = free
	Capacity    int         `json:"capacity"`    // 0 = unlimited
	Status      EventStatus `json:"status"`
	CoverURL    *string     `json:"coverImage,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type Venue struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AttendeeStatus string

const (
	AttendeeStatusPending   AttendeeStatus = "pending"
	AttendeeStatusApproved  AttendeeStatus = "approved"
	AttendeeStatusDeclined  AttendeeStatus = "declined"
	AttendeeStatusCancelled AttendeeStatus = "cancelled"
)

type EventAttendee struct {
	EventID   string         `json:"eventId"`
	UserID    string         `json:"userId"`
	Status    AttendeeStatus `json:"status"`
	JoinedAt  time.Time      `json:"joinedAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
